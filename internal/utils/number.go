package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rxKeepNums  = regexp.MustCompile(`[^\d.,\-]`)
	rxThousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)
)

// ParseAmount parses spreadsheet numbers: "$1,234.50", "1 234,50", "(250)",
// "12 nos". The last of '.' and ',' is taken as the decimal separator unless
// the commas only group thousands.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" {
		return 0, false
	}

	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && rxThousands.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseInt is ParseAmount truncated to an int, for lead times and line numbers.
func ParseInt(s string) (int, bool) {
	f, ok := ParseAmount(s)
	if !ok {
		return 0, false
	}
	return int(f), true
}
