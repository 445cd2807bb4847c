package phrases

// Segment is a run of text, annotated when TooltipID is set
type Segment struct {
	Text      string `json:"text"`
	TooltipID string `json:"tooltipId,omitempty"`
}

// Segments splits text around spans so that concatenating the segments'
// Text reproduces text exactly. Spans must be sorted and disjoint, as
// Annotate returns them; spans that are out of range or overlap an earlier
// span are treated as plain text.
func Segments(text string, spans []Span) []Segment {
	if text == "" {
		return nil
	}

	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, span := range spans {
		if span.Start < cursor || span.End <= span.Start || span.End > len(text) {
			continue
		}
		if span.Start > cursor {
			segments = append(segments, Segment{Text: text[cursor:span.Start]})
		}
		segments = append(segments, Segment{Text: text[span.Start:span.End], TooltipID: span.TooltipID})
		cursor = span.End
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	return segments
}
