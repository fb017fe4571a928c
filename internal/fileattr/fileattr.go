// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

// Package fileattr resolves the single-letter file attributes referenced by
// sort strings and format strings against a file's lstat(2) information.
//
// Reading raw stat fields (st_dev, st_blocks, st_ino, ...) and resolving
// numeric uid/gid to names has no equivalent among the pack's third-party
// libraries — it is inherently a syscall.Stat_t / os/user concern, so this
// package is built on the standard library rather than diverging from it
// for its own sake.
package fileattr

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/efind-go/efind/internal/format"
	"github.com/efind-go/efind/internal/stage"
)

// Source resolves attributes by lstat-ing each path once per Attr call and
// caching user/group name lookups across calls, since those are comparatively
// expensive and highly repetitive across a single search.
type Source struct {
	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

// NewSource returns a ready-to-use Source.
func NewSource() *Source {
	return &Source{users: map[uint32]string{}, groups: map[uint32]string{}}
}

// ForSort adapts Source to stage.AttrSource, collapsing each attribute down
// to the string-or-integer shape the sort stage compares by.
func (s *Source) ForSort() stage.AttrSource {
	return sortAdapter{s}
}

// ForFormat adapts Source to format.AttrSource, preserving each attribute's
// full type (string, integer, octal, float or time).
func (s *Source) ForFormat() format.AttrSource {
	return formatAdapter{s}
}

type sortAdapter struct{ s *Source }

func (a sortAdapter) Attr(dir, path string, letter byte) (stage.Attr, error) {
	v, err := a.s.attr(dir, path, letter)
	if err != nil {
		return stage.Attr{}, err
	}
	switch v.Kind {
	case format.KindString:
		return stage.Attr{Str: v.Str, IsStr: true}, nil
	case format.KindTime:
		return stage.Attr{Int: v.Time.Unix()}, nil
	case format.KindFloat:
		return stage.Attr{Int: int64(v.Float * 1e9)}, nil
	default:
		return stage.Attr{Int: v.Int}, nil
	}
}

type formatAdapter struct{ s *Source }

func (a formatAdapter) Attr(dir, path string, letter byte) (format.Value, error) {
	return a.s.attr(dir, path, letter)
}

func (s *Source) attr(dir, path string, letter byte) (format.Value, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return format.Value{}, fmt.Errorf("couldn't stat %s: %w", path, err)
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return format.Value{}, fmt.Errorf("couldn't read raw stat info for %s", path)
	}

	switch letter {
	case 'p':
		return strVal(path), nil
	case 'f':
		return strVal(filepath.Base(path)), nil
	case 'h':
		return strVal(filepath.Dir(path)), nil
	case 'H':
		return strVal(dir), nil
	case 'P':
		return strVal(removeCLI(dir, path)), nil
	case 'l':
		return strVal(s.symlinkTarget(path, info)), nil
	case 'F':
		return strVal(""), nil // filesystem-type map has no portable stdlib equivalent
	case 'X':
		return strVal(extension(path)), nil
	case 'N':
		return strVal(nameWithoutExtension(path)), nil
	case 'g':
		return strVal(s.groupName(sys.Gid)), nil
	case 'u':
		return strVal(s.userName(sys.Uid)), nil
	case 'M':
		return strVal(permissionString(info.Mode(), sys.Mode)), nil
	case 'm':
		return format.Value{Kind: format.KindOctal, Int: int64(sys.Mode & 0o777)}, nil
	case 'b':
		return intVal(sys.Blocks), nil
	case 'D':
		return intVal(int64(sys.Dev)), nil
	case 'G':
		return intVal(int64(sys.Gid)), nil
	case 'U':
		return intVal(int64(sys.Uid)), nil
	case 'i':
		return intVal(int64(sys.Ino)), nil
	case 'k':
		return intVal(sys.Size / 1024), nil
	case 'n':
		return intVal(int64(sys.Nlink)), nil
	case 's':
		return intVal(sys.Size), nil
	case 'S':
		return format.Value{Kind: format.KindFloat, Float: sparseness(sys.Blksize, sys.Blocks, sys.Size)}, nil
	case 'A':
		return timeVal(statTime(sys.Atim)), nil
	case 'C':
		return timeVal(statTime(sys.Ctim)), nil
	case 'T':
		return timeVal(statTime(sys.Mtim)), nil
	case 'a':
		return intVal(statTime(sys.Atim).Unix()), nil
	case 'c':
		return intVal(statTime(sys.Ctim).Unix()), nil
	case 't':
		return intVal(statTime(sys.Mtim).Unix()), nil
	default:
		return format.Value{}, fmt.Errorf("unsupported file attribute %q", letter)
	}
}

func strVal(s string) format.Value     { return format.Value{Kind: format.KindString, Str: s} }
func intVal(n int64) format.Value      { return format.Value{Kind: format.KindInt, Int: n} }
func timeVal(t time.Time) format.Value { return format.Value{Kind: format.KindTime, Time: t} }

func statTime(ts syscall.Timespec) time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}

// removeCLI strips the search starting-point prefix (plus its separating
// slash) from path, the way the original -printf "%P" directive does.
func removeCLI(cli, path string) string {
	if !strings.HasSuffix(cli, "/") {
		cli += "/"
	}
	return strings.TrimPrefix(path, cli)
}

func (s *Source) symlinkTarget(path string, info os.FileInfo) string {
	if info.Mode()&os.ModeSymlink == 0 {
		return ""
	}
	target, err := os.Readlink(path)
	if err != nil {
		return ""
	}
	return target
}

func extension(path string) string {
	ext := filepath.Ext(filepath.Base(path))
	return strings.TrimPrefix(ext, ".")
}

func nameWithoutExtension(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *Source) userName(uid uint32) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.users[uid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	s.users[uid] = name
	return name
}

func (s *Source) groupName(gid uint32) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.groups[gid]; ok {
		return name
	}
	name := strconv.FormatUint(uint64(gid), 10)
	if g, err := user.LookupGroupId(name); err == nil {
		name = g.Name
	}
	s.groups[gid] = name
	return name
}

// rwx mirrors the ls-style 3-bit permission group rendering.
var rwx = [8]string{"---", "--x", "-w-", "-wx", "r--", "r-x", "rw-", "rwx"}

func permissionString(mode os.FileMode, rawMode uint32) string {
	var b strings.Builder

	switch {
	case mode&os.ModeSocket != 0:
		b.WriteByte('s')
	case mode&os.ModeSymlink != 0:
		b.WriteByte('l')
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0:
		b.WriteByte('b')
	case mode&os.ModeDir != 0:
		b.WriteByte('d')
	case mode&os.ModeCharDevice != 0:
		b.WriteByte('c')
	case mode&os.ModeNamedPipe != 0:
		b.WriteByte('p')
	default:
		b.WriteByte('-')
	}

	b.WriteString(rwx[(rawMode>>6)&7])
	b.WriteString(rwx[(rawMode>>3)&7])
	b.WriteString(rwx[rawMode&7])

	bits := []byte(b.String())

	const (
		setuid = 0o4000
		setgid = 0o2000
		sticky = 0o1000
	)
	if rawMode&setuid != 0 {
		if rawMode&0o100 != 0 {
			bits[3] = 's'
		} else {
			bits[3] = 'S'
		}
	}
	if rawMode&setgid != 0 {
		if rawMode&0o010 != 0 {
			bits[6] = 's'
		} else {
			bits[6] = 'l'
		}
	}
	if rawMode&sticky != 0 {
		if rawMode&0o001 != 0 {
			bits[9] = 't'
		} else {
			bits[9] = 'T'
		}
	}

	return string(bits)
}

// sparseness mirrors _file_info_calc_sparseness: the ratio of actually
// allocated disk blocks to the file's logical size.
func sparseness(blksize int64, blocks int64, size int64) float64 {
	if size > 0 {
		v := float64(blksize/8) * float64(blocks) / float64(size)
		if v != v || v > 1e308 || v < -1e308 { // NaN or Inf
			return 0
		}
		return v
	}
	if blocks != 0 {
		return 1.0
	}
	return 0.0
}
