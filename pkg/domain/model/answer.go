package model

// Fixed messages returned by the grounded answer generator
const (
	NoContextAnswer       = "I cannot answer this question as no relevant context was found in the document."
	ProviderFailureAnswer = "An error occurred while trying to generate a response. Please try again."
	JustificationNotFound = "Justification not found in the model response."
)

// GroundedAnswer is an answer to a question together with the document
// excerpt supporting it
type GroundedAnswer struct {
	Answer        string
	Justification string
}
