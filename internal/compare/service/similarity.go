package service

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"quotecraft/internal/compare/model"
)

const maxAlternatives = 3

// MatchOptions tunes the similarity matcher.
type MatchOptions struct {
	Threshold         float64 // max accepted distance (0..1); 1 accepts every candidate
	DescriptionWeight float64
	UnitWeight        float64
}

func DefaultMatchOptions() MatchOptions {
	return MatchOptions{Threshold: 0.4, DescriptionWeight: 0.8, UnitWeight: 0.2}
}

// Matcher ranks BOQ items for free-text quote lines.
type Matcher struct {
	opt MatchOptions
}

func NewMatcher(opt MatchOptions) *Matcher {
	if opt.DescriptionWeight <= 0 && opt.UnitWeight <= 0 {
		def := DefaultMatchOptions()
		opt.DescriptionWeight, opt.UnitWeight = def.DescriptionWeight, def.UnitWeight
	}
	return &Matcher{opt: opt}
}

type candidate struct {
	pos      int
	distance float64
}

// Match returns exactly one MatchResult per quote item, in input order.
// Every quote line is matched on its own: two lines may share a BOQ item.
func (m *Matcher) Match(boqItems []model.BOQItem, quoteItems []model.QuoteItem) []model.MatchResult {
	idx := buildIndex(boqItems)
	out := make([]model.MatchResult, 0, len(quoteItems))
	for _, q := range quoteItems {
		out = append(out, m.matchOne(idx, q))
	}
	return out
}

func (m *Matcher) matchOne(idx *Index, q model.QuoteItem) model.MatchResult {
	res := model.MatchResult{Quote: q, Alternatives: []model.Alternative{}}

	query := normalize(q.Description)
	if query == "" || idx.Len() == 0 {
		return res
	}
	unit := normalizeUnit(q.Unit)

	cands := make([]candidate, 0, idx.Len())
	for i, e := range idx.entries {
		d := m.distance(query, unit, e)
		if d <= m.opt.Threshold {
			cands = append(cands, candidate{pos: i, distance: d})
		}
	}
	if len(cands) == 0 {
		return res
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].distance < cands[b].distance })

	top := idx.entries[cands[0].pos].item
	id := top.ID
	res.MatchedBOQID = &id
	res.Confidence = 1 - cands[0].distance

	seen := map[string]struct{}{id: {}}
	for _, c := range cands[1:] {
		if len(res.Alternatives) == maxAlternatives {
			break
		}
		it := idx.entries[c.pos].item
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		res.Alternatives = append(res.Alternatives, model.Alternative{
			BOQID: it.ID,
			Label: label(it),
			Score: 1 - c.distance,
		})
	}
	return res
}

// distance is the weighted field distance in [0..1], lower is better.
// The unit field only participates when the quote line states a unit.
func (m *Matcher) distance(query, unit string, e entry) float64 {
	descDist := 1 - textSimilarity(query, e.desc)
	if unit == "" || m.opt.UnitWeight <= 0 {
		return descDist
	}
	unitDist := 1 - unitSimilarity(unit, e.unit)
	total := m.opt.DescriptionWeight + m.opt.UnitWeight
	return (m.opt.DescriptionWeight*descDist + m.opt.UnitWeight*unitDist) / total
}

// textSimilarity is the best of edit similarity, token-sorted edit similarity
// and token-set overlap (Dice), so word order and extra words cost less.
func textSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	best := levenshtein.Similarity(a, b, nil)
	if s := levenshtein.Similarity(tokenSort(a), tokenSort(b), nil); s > best {
		best = s
	}
	if s := tokenDice(a, b); s > best {
		best = s
	}
	return best
}

func tokenDice(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta)+len(tb) == 0 {
		return 0
	}
	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return 2 * float64(common) / float64(len(ta)+len(tb))
}

func tokenSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, t := range strings.Fields(s) {
		m[t] = struct{}{}
	}
	return m
}

func unitSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil)
}

// Override reassigns a match by hand. Confidence becomes exactly 1 and the
// new target is dropped from the alternatives.
func Override(res model.MatchResult, boqID string) model.MatchResult {
	id := boqID
	res.MatchedBOQID = &id
	res.Confidence = 1.0
	alts := make([]model.Alternative, 0, len(res.Alternatives))
	for _, a := range res.Alternatives {
		if a.BOQID != boqID {
			alts = append(alts, a)
		}
	}
	res.Alternatives = alts
	return res
}
