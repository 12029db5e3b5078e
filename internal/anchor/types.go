package anchor

// Method identifies which finder produced a candidate.
type Method string

const (
	MethodKeyword    Method = "keyword"
	MethodNumber     Method = "number"
	MethodSimilarity Method = "similarity"
)

// Candidate is a claimed correspondence between one source event and one
// reference event. TimeOffset is reference start minus source start, i.e.
// the shift that moves the source event onto the reference timeline.
// Candidates are transient and never persisted.
type Candidate struct {
	SourceIndex    int
	ReferenceIndex int
	Confidence     float64
	Method         Method
	TimeOffset     float64
	MatchedTokens  []string
}
