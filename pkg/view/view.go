package view

import "strconv"

// Kind names one of the analytical perspectives a document can be rendered as.
type Kind string

const (
	KindQA       Kind = "qa"
	KindSystem   Kind = "system"
	KindLearning Kind = "learning"
)

func (k Kind) String() string {
	return string(k)
}

// Segment is one ordered slice of a document's preprocessed content.
// ID is stable within a document ("seg-<index>") so model output can cite it.
type Segment struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func SegmentID(index int) string {
	return "seg-" + strconv.Itoa(index)
}

// ConfidenceKey is the one reserved entry of ResultData. Processors that
// score their own output put either a number or an object with a "score"
// field under it.
const ConfidenceKey = "confidence"

// ResultData is the structured output of a processor. The orchestration
// layer stores and relays it without looking inside, apart from ConfidenceKey.
type ResultData map[string]interface{}

// Confidence reads the processor-reported score, if any.
func (r ResultData) Confidence() (float64, bool) {
	switch v := r[ConfidenceKey].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case map[string]interface{}:
		score, ok := v["score"].(float64)
		return score, ok
	default:
		return 0, false
	}
}

// CopySegments returns a detached copy so processors never share the stored slice.
func CopySegments(segments []Segment) []Segment {
	if segments == nil {
		return nil
	}
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}
