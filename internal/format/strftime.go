// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 efind Contributors

package format

import (
	"fmt"
	"time"
)

// strftimeField renders a single strftime(3) conversion character against
// t, covering the date/time fields the lexer accepts after a date
// attribute letter (DATE_FIELDS "aAbBcdDhjmUwWxyY" and TIME_FIELDS
// "HIklMprST+XZ").
func strftimeField(c byte, t time.Time) string {
	switch c {
	case 'a':
		return t.Format("Mon")
	case 'A':
		return t.Format("Monday")
	case 'b', 'h':
		return t.Format("Jan")
	case 'B':
		return t.Format("January")
	case 'c':
		return t.Format("Mon Jan _2 15:04:05 2006")
	case 'd':
		return t.Format("02")
	case 'D', 'x':
		return t.Format("01/02/06")
	case 'H':
		return t.Format("15")
	case 'I':
		return t.Format("03")
	case 'j':
		return fmt.Sprintf("%03d", t.YearDay())
	case 'k':
		return fmt.Sprintf("%2d", t.Hour())
	case 'l':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return fmt.Sprintf("%2d", h)
	case 'm':
		return t.Format("01")
	case 'M':
		return t.Format("04")
	case 'p':
		return t.Format("PM")
	case 'r':
		return t.Format("03:04:05 PM")
	case 'S':
		return t.Format("05")
	case 'T', 'X':
		return t.Format("15:04:05")
	case 'U':
		return fmt.Sprintf("%02d", (t.YearDay()-1+7-int(t.Weekday()))/7)
	case 'w':
		return fmt.Sprintf("%d", int(t.Weekday()))
	case 'W':
		return fmt.Sprintf("%02d", (t.YearDay()-1+7-(int(t.Weekday())+6)%7)/7)
	case 'y':
		return t.Format("06")
	case 'Y':
		return t.Format("2006")
	case 'Z':
		zone, _ := t.Zone()
		return zone
	case '+':
		_, offset := t.Zone()
		sign := "+"
		if offset < 0 {
			sign = "-"
			offset = -offset
		}
		return fmt.Sprintf("%s%02d%02d", sign, offset/3600, (offset%3600)/60)
	default:
		return string(c)
	}
}
