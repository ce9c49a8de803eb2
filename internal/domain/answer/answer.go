package answer

// Citation points at the page a hit came from.
type Citation struct {
	Source string
	Page   int
}

// Answer is the user-facing result of a query.
// Grounded is false when retrieval found no context and no generation was attempted.
type Answer struct {
	Text      string
	Citations []Citation
	Grounded  bool
}

// NoContext is the answer returned when the collection holds nothing relevant.
const NoContext = "I could not find anything in the indexed documents to answer this question."

// Ungrounded returns the answer for a query with no retrieved context.
func Ungrounded() Answer {
	return Answer{Text: NoContext}
}
