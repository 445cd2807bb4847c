package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rulekeeper/rulebook-mcp/internal/indexing"
	"github.com/xrash/smetrics"
)

// DefaultThreshold accepts roughly 40% dissimilarity between the query and a field
const DefaultThreshold = 0.4

// qualityFloor keeps exact field hits (quality 0) from zeroing the product,
// so a record matching in several fields still beats one matching in one.
const qualityFloor = 0.001

// maxFuzziness is the largest edit distance bleve's fuzzy searcher accepts
const maxFuzziness = 2

// Field is a searchable record field and its weight
type Field struct {
	Name   string
	Weight float64
}

// Fields consulted by the matcher, in weight order
var Fields = []Field{
	{Name: FieldShortTitle, Weight: 0.5},
	{Name: FieldTitle, Weight: 0.3},
	{Name: FieldContent, Weight: 0.2},
}

// Options tunes the matcher
type Options struct {
	// Threshold bounds accepted field dissimilarity in [0,1]; 0 uses DefaultThreshold
	Threshold float64
}

// FieldMatch is the quality of one matching field (0 = exact, lower is better)
type FieldMatch struct {
	Field   string  `json:"field"`
	Quality float64 `json:"quality"`
}

// Match is a record accepted by the matcher
type Match struct {
	Record  indexing.SearchRecord `json:"record"`
	Quality float64               `json:"quality"` // Lower is better
	Fields  []FieldMatch          `json:"fields"`
}

// Matcher performs approximate multi-field matching over an immutable set
// of search records. It is safe for concurrent use.
type Matcher struct {
	index     Index
	records   []indexing.SearchRecord
	byID      map[string]int // id -> position of the record the index holds
	threshold float64
}

// NewMatcher indexes records in memory and returns a matcher over them
func NewMatcher(records []indexing.SearchRecord, opts Options) (*Matcher, error) {
	index, err := NewMemIndex(records)
	if err != nil {
		return nil, err
	}
	return NewMatcherWithIndex(index, records, opts), nil
}

// NewMatcherWithIndex builds a matcher on an existing index. The index must
// hold documents keyed by the records' ids.
func NewMatcherWithIndex(index Index, records []indexing.SearchRecord, opts Options) *Matcher {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	byID := make(map[string]int, len(records))
	for i, record := range records {
		// Later duplicates shadow earlier ones, as in the index
		byID[record.ID] = i
	}

	return &Matcher{
		index:     index,
		records:   records,
		byID:      byID,
		threshold: threshold,
	}
}

// Threshold returns the effective dissimilarity threshold
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Close releases the underlying index
func (m *Matcher) Close() error {
	return m.index.Close()
}

// Match returns every record that approximately matches query, in index
// order. An empty or blank query returns no matches.
func (m *Matcher) Match(q string) ([]Match, error) {
	q = strings.TrimSpace(q)
	if q == "" || len(m.records) == 0 {
		return nil, nil
	}

	terms := queryTerms(q)
	if len(terms) == 0 {
		return nil, nil
	}

	count, err := m.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(m.candidateQuery(terms), int(count), 0, false)
	result, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	positions := make([]int, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if pos, ok := m.byID[hit.ID]; ok {
			positions = append(positions, pos)
		}
	}
	sort.Ints(positions)

	matches := make([]Match, 0, len(positions))
	for _, pos := range positions {
		if match, ok := m.score(q, m.records[pos]); ok {
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// candidateQuery ORs, for every field and query term, a fuzzy term query and
// a wildcard query for the term anywhere inside a token, each boosted by the
// field weight. The wildcard keeps mid-word hits ("sword" in "Greatsword")
// in the candidate set, since FieldQuality rates them exact.
func (m *Matcher) candidateQuery(terms []string) query.Query {
	disjuncts := make([]query.Query, 0, len(Fields)*len(terms)*2)
	for _, field := range Fields {
		for _, term := range terms {
			var approx query.Query
			if fuzziness := m.fuzziness(term); fuzziness > 0 {
				fq := bleve.NewFuzzyQuery(term)
				fq.SetFuzziness(fuzziness)
				fq.SetField(field.Name)
				fq.SetBoost(field.Weight)
				approx = fq
			} else {
				tq := bleve.NewTermQuery(term)
				tq.SetField(field.Name)
				tq.SetBoost(field.Weight)
				approx = tq
			}

			// Terms are letters and digits only, so nothing needs escaping
			wq := bleve.NewWildcardQuery("*" + term + "*")
			wq.SetField(field.Name)
			wq.SetBoost(field.Weight)

			disjuncts = append(disjuncts, approx, wq)
		}
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

// fuzziness allows threshold*len edits per term, capped at bleve's maximum
func (m *Matcher) fuzziness(term string) int {
	edits := int(math.Floor(float64(utf8.RuneCountInString(term)) * m.threshold))
	if edits > maxFuzziness {
		return maxFuzziness
	}
	return edits
}

func (m *Matcher) score(q string, record indexing.SearchRecord) (Match, bool) {
	total := 1.0
	var fields []FieldMatch
	for _, field := range Fields {
		quality, ok := FieldQuality(q, fieldValue(record, field.Name), m.threshold)
		if !ok {
			continue
		}
		fields = append(fields, FieldMatch{Field: field.Name, Quality: quality})
		total *= math.Pow(math.Max(quality, qualityFloor), field.Weight)
	}
	if len(fields) == 0 {
		return Match{}, false
	}
	return Match{Record: record, Quality: total, Fields: fields}, true
}

// FieldQuality scores how well query matches text: 0 when text contains the
// query anywhere (case-insensitive), otherwise the smallest edit distance
// between the query and any run of words in text, relative to the query
// length. Multi-word queries are also scored word by word against the best
// text word for each, so reordered words still match. The position of the
// hit inside text never matters.
func FieldQuality(q, text string, threshold float64) (float64, bool) {
	lq := strings.ToLower(strings.TrimSpace(q))
	lt := strings.ToLower(text)
	if lq == "" || strings.TrimSpace(lt) == "" {
		return 1, false
	}
	if strings.Contains(lt, lq) {
		return 0, true
	}

	qWords := words(lq)
	tWords := words(lt)
	if len(qWords) == 0 || len(tWords) == 0 {
		return 1, false
	}

	joined := strings.Join(qWords, " ")
	qLen := utf8.RuneCountInString(joined)

	best := math.MaxInt
	if len(qWords) >= len(tWords) {
		best = smetrics.WagnerFischer(joined, strings.Join(tWords, " "), 1, 1, 1)
	} else {
		for i := 0; i+len(qWords) <= len(tWords) && best > 0; i++ {
			window := strings.Join(tWords[i:i+len(qWords)], " ")
			if d := smetrics.WagnerFischer(joined, window, 1, 1, 1); d < best {
				best = d
			}
		}
	}
	if len(qWords) > 1 && best > 0 {
		if d := wordwiseDistance(qWords, tWords); d < best {
			best = d
		}
	}

	quality := float64(best) / float64(qLen)
	if quality > 1 {
		quality = 1
	}
	return quality, quality <= threshold
}

// wordwiseDistance sums, over the query words, the distance to the closest
// text word. A text word containing the query word costs nothing.
func wordwiseDistance(qWords, tWords []string) int {
	total := 0
	for _, qw := range qWords {
		closest := math.MaxInt
		for _, tw := range tWords {
			if strings.Contains(tw, qw) {
				closest = 0
				break
			}
			if d := smetrics.WagnerFischer(qw, tw, 1, 1, 1); d < closest {
				closest = d
			}
		}
		total += closest
	}
	return total
}

func fieldValue(record indexing.SearchRecord, field string) string {
	switch field {
	case FieldShortTitle:
		return record.ShortTitle
	case FieldTitle:
		return record.Title
	case FieldContent:
		return record.Content
	}
	return ""
}

// queryTerms lowercases and splits the query the way the index tokenizes text
func queryTerms(q string) []string {
	return words(strings.ToLower(q))
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
