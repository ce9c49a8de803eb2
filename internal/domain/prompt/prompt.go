package prompt

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

// Delimiter separates context entries.
const Delimiter = "\n\n\n"

// DefaultInstructions constrain the model to the retrieved context and ask it to cite pages.
const DefaultInstructions = `You are a helpful AI assistant who answers the user's query using only the
context retrieved from their documents. Each context entry carries the page content,
its page number and the file it came from.

Answer only from the context below. If the context does not contain the answer, say so.
Point the user to the right page number so they can read more.`

// AssembleContext renders hits in rank order, highest similarity first.
// Overlapping chunks are not deduplicated.
func AssembleContext(hits []record.Hit) string {
	entries := make([]string, 0, len(hits))
	for _, h := range hits {
		r := h.Record()
		var b strings.Builder
		b.WriteString("Page Content: ")
		b.WriteString(r.Text())
		b.WriteString("\nPage Number: ")
		b.WriteString(strconv.Itoa(r.Page()))
		b.WriteString("\nFile Location: ")
		b.WriteString(r.Source())
		entries = append(entries, b.String())
	}
	return strings.Join(entries, Delimiter)
}

// SystemMessage joins the instructions and the context block into one system prompt.
func SystemMessage(instructions, contextBlock string) string {
	if instructions == "" {
		instructions = DefaultInstructions
	}
	return instructions + "\n\nContext:\n" + contextBlock
}

// FormatAnswer attaches citations to a generation: unique (source, page) pairs in rank order.
func FormatAnswer(gen domain.Generation, hits []record.Hit) answer.Answer {
	seen := make(map[answer.Citation]struct{}, len(hits))
	cites := make([]answer.Citation, 0, len(hits))
	for _, h := range hits {
		c := answer.Citation{Source: h.Record().Source(), Page: h.Record().Page()}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cites = append(cites, c)
	}
	return answer.Answer{
		Text:      strings.TrimSpace(gen.Text),
		Citations: cites,
		Grounded:  true,
	}
}
