package ingest

import (
	"regexp"
	"strings"

	"quotecraft/internal/fileio"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normHeaderKey lowercases and reduces punctuation to single spaces.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey finds the real header for a wanted column. want may list
// alternatives separated by "|"; the first alternative found wins.
// Exact header text beats normalized equality, which beats containment.
func resolveKey(headers []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	for _, a := range alts {
		for _, h := range headers {
			if h == a {
				return h
			}
		}
	}

	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normHeaderKey(h)
	}
	for _, a := range alts {
		na := normHeaderKey(a)
		for i, nh := range norm {
			if nh == na {
				return headers[i]
			}
		}
	}

	// containment: "unit rate (usd)" contains "unit rate"
	for _, a := range alts {
		na := normHeaderKey(a)
		if na == "" {
			continue
		}
		for i, nh := range norm {
			if strings.Contains(nh, na) {
				return headers[i]
			}
		}
	}
	return ""
}

var headerWords = []string{"description", "qty", "quantity", "unit", "uom", "rate", "price", "amount", "sku"}

// looksLikeHeader spots header rows repeated on later pages.
func looksLikeHeader(rec fileio.Record) bool {
	cnt := 0
	for _, v := range rec {
		s := normHeaderKey(v)
		for _, w := range headerWords {
			if s == w {
				cnt++
				break
			}
		}
	}
	return cnt >= 2
}

var totalRow = regexp.MustCompile(`^(grand\s+|sub\s*-?\s*)?total\b`)

func isTotalRow(description string) bool {
	return totalRow.MatchString(normHeaderKey(description))
}
