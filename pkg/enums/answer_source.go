package enums

// AnswerSource identifies which stage of the resolver produced an answer.
type AnswerSource string

const (
	AnswerSourceStatic     AnswerSource = "static"
	AnswerSourceKnowledge  AnswerSource = "kb"
	AnswerSourceGenerative AnswerSource = "generative"
	AnswerSourceFallback   AnswerSource = "fallback"
)

// String implements fmt.Stringer.
func (a AnswerSource) String() string {
	return string(a)
}
