package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// é → e, ﬁ → fi, full-width digits → ASCII
var foldChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// 1,200 → 1200 (thousands separator, not a decimal comma)
var thousands = regexp.MustCompile(`(\d),(\d{3})\b`)

// 600 x 600, 600×600, 600*600 → 600x600
var dimensions = regexp.MustCompile(`(\d)\s*[x×*]\s*(\d)`)

// Units are listed longest first so that "mm" wins over "m".
const unitWord = `sqft|sqm|mpa|pcs|nos|mm|cm|m2|m3|kg|ml|kn|no|m|g|t|l`

// 48 mm → 48mm, 3.5 % → 3.5%
var (
	reAttachNumUnit = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s+(` + unitWord + `)\b`)
	reAttachPercent = regexp.MustCompile(`(\d)\s+%`)
)

// letters, digits, whitespace, the decimal point and % survive
var punct = regexp.MustCompile(`[^\p{L}\p{N}\s.%]+`)

// stray dots that are not decimal points
var looseDots = regexp.MustCompile(`(^|[^\d])\.|\.([^\d]|$)`)

// normalize is the text pipeline applied to both BOQ and quote descriptions.
func normalize(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = thousands.ReplaceAllString(out, "$1$2")
	out = dimensions.ReplaceAllString(out, "${1}x${2}")
	out = punct.ReplaceAllString(out, " ")
	out = looseDots.ReplaceAllString(out, "$1 $2")
	out = attachNumberUnits(out)
	return collapseSpaces(out)
}

func attachNumberUnits(s string) string {
	prev := ""
	out := collapseSpaces(s)
	for out != prev {
		prev = out
		out = reAttachNumUnit.ReplaceAllString(out, "$1$2")
		out = reAttachPercent.ReplaceAllString(out, "$1%")
	}
	return out
}

var unitAliases = map[string]string{
	"sq.m": "m2", "sqm": "m2", "sq m": "m2", "m²": "m2", "square metre": "m2", "square meter": "m2",
	"cum": "m3", "cu.m": "m3", "cu m": "m3", "m³": "m3", "cubic metre": "m3", "cubic meter": "m3",
	"rm": "m", "rmt": "m", "lm": "m", "mtr": "m", "meter": "m", "metre": "m",
	"no": "nos", "no.": "nos", "nr": "nos", "each": "nos", "ea": "nos", "pcs": "nos", "pc": "nos", "unit": "nos",
	"kgs": "kg", "kilogram": "kg", "ton": "t", "tonne": "t", "mt": "t",
	"ls": "lumpsum", "l.s.": "lumpsum", "lump sum": "lumpsum",
}

// normalizeUnit maps unit spellings onto one canonical token.
func normalizeUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return ""
	}
	if c, ok := unitAliases[u]; ok {
		return c
	}
	u = strings.TrimSuffix(u, ".")
	if c, ok := unitAliases[u]; ok {
		return c
	}
	return u
}

func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
