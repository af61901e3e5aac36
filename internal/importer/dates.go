package importer

import (
	"strings"
	"time"
)

// genericLayouts are tried after a format's own date formats.
var genericLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"2006/01/02",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// Layout translates a date pattern written with yyyy/MM/dd style letters
// into a Go reference-time layout. A pattern that already contains "2006" is
// returned unchanged. Text in single quotes is literal; '' is a quote.
//
//	"MM/dd/yyyy" -> "01/02/2006"
//	"d-MMM-yy"   -> "2-Jan-06"
func Layout(pattern string) string {
	if strings.Contains(pattern, "2006") {
		return pattern
	}

	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]

		if c == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(runes) && runes[j] != '\'' {
				b.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		b.WriteString(token(c, n))
		i += n
	}
	return b.String()
}

func token(c rune, n int) string {
	switch c {
	case 'y':
		if n == 2 {
			return "06"
		}
		return "2006"
	case 'M', 'L':
		switch n {
		case 1:
			return "1"
		case 2:
			return "01"
		case 3:
			return "Jan"
		default:
			return "January"
		}
	case 'd':
		if n == 1 {
			return "2"
		}
		return "02"
	case 'E':
		if n <= 3 {
			return "Mon"
		}
		return "Monday"
	case 'H':
		return "15"
	case 'h':
		if n == 1 {
			return "3"
		}
		return "03"
	case 'm':
		if n == 1 {
			return "4"
		}
		return "04"
	case 's':
		if n == 1 {
			return "5"
		}
		return "05"
	case 'S':
		return strings.Repeat("0", n)
	case 'a':
		return "PM"
	case 'Z':
		return "-0700"
	case 'X':
		if n >= 3 {
			return "Z07:00"
		}
		return "Z0700"
	case 'z':
		return "MST"
	default:
		return strings.Repeat(string(c), n)
	}
}

// parseDate tries each pattern in order, then the generic layouts. All
// parsing happens in loc.
func parseDate(value string, patterns []string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, p := range patterns {
		if t, err := time.ParseInLocation(Layout(p), value, loc); err == nil {
			return t, true
		}
	}
	for _, layout := range genericLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
