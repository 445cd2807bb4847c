package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
)

// Ranking multipliers. Every factor is at most 1, so each rule can only move
// a record up; lower adjusted scores rank first.
const (
	exactShortTitleFactor  = 0.1
	prefixShortTitleFactor = 0.3
	substrShortTitleFactor = 0.5
	titleContainsFactor    = 0.7
	headerSectionFactor    = 0.6
	outlineSectionFactor   = 0.8
	depthStep              = 0.05
	minDepthFactor         = 0.5
	shortTitleLimit        = 30
	shortTitleFactor       = 0.9
)

// Ranked is a record with its adjusted relevance score (lower is better)
type Ranked struct {
	Record indexing.SearchRecord `json:"record"`
	Score  float64               `json:"score"`
}

// Score applies the heuristic adjustments to a match's raw quality
func Score(q string, m Match) float64 {
	lq := strings.ToLower(strings.TrimSpace(q))
	record := m.Record
	score := m.Quality

	short := strings.ToLower(record.ShortTitle)
	if lq != "" {
		switch {
		case short == lq:
			score *= exactShortTitleFactor
		case strings.HasPrefix(short, lq):
			score *= prefixShortTitleFactor
		case strings.Contains(short, lq):
			score *= substrShortTitleFactor
		}

		if strings.Contains(strings.ToLower(record.Title), lq) {
			score *= titleContainsFactor
		}
	}

	if record.Kind == indexing.KindSection {
		if record.IsHeader() {
			score *= headerSectionFactor
		} else {
			score *= outlineSectionFactor
		}
	} else if record.Depth > 0 {
		score *= depthFactor(record.Depth)
	}

	if utf8.RuneCountInString(record.ShortTitle) < shortTitleLimit {
		score *= shortTitleFactor
	}

	return score
}

// depthFactor favours deeper rows, bottoming out so very deep rows never
// reach a zero or negative multiplier
func depthFactor(depth int) float64 {
	f := 1 - float64(depth)*depthStep
	if f < minDepthFactor {
		return minDepthFactor
	}
	return f
}

// RankScored orders matches by adjusted score. Ties keep the matcher's order.
func RankScored(q string, matches []Match) []Ranked {
	ranked := make([]Ranked, len(matches))
	for i, m := range matches {
		ranked[i] = Ranked{Record: m.Record, Score: Score(q, m)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

// Rank returns the matched records in final display order
func Rank(q string, matches []Match) []indexing.SearchRecord {
	ranked := RankScored(q, matches)
	records := make([]indexing.SearchRecord, len(ranked))
	for i, r := range ranked {
		records[i] = r.Record
	}
	return records
}
