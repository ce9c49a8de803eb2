package prompt

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
)

func hit(id, text, source string, page int, score float64) record.Hit {
	return record.NewHit(record.New(id, text, source, page, nil), score)
}

func TestAssembleContext_Format(t *testing.T) {
	hits := []record.Hit{
		hit("a", "Node.js is a runtime", "nodejs.pdf", 1, 0.9),
		hit("b", "Express is a framework", "nodejs.pdf", 2, 0.4),
	}
	got := AssembleContext(hits)
	want := "Page Content: Node.js is a runtime\nPage Number: 1\nFile Location: nodejs.pdf" +
		"\n\n\n" +
		"Page Content: Express is a framework\nPage Number: 2\nFile Location: nodejs.pdf"
	if got != want {
		t.Errorf("unexpected context:\n%q\nwant:\n%q", got, want)
	}
}

func TestAssembleContext_Empty(t *testing.T) {
	if got := AssembleContext(nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestAssembleContext_KeepsOverlappingEntries(t *testing.T) {
	hits := []record.Hit{
		hit("a", "same", "x.pdf", 1, 0.9),
		hit("b", "same", "x.pdf", 1, 0.8),
	}
	if n := strings.Count(AssembleContext(hits), "Page Content: same"); n != 2 {
		t.Errorf("expected both entries, got %d", n)
	}
}

func TestSystemMessage(t *testing.T) {
	msg := SystemMessage("", "CTX")
	if !strings.HasPrefix(msg, DefaultInstructions) {
		t.Error("expected default instructions")
	}
	if !strings.HasSuffix(msg, "Context:\nCTX") {
		t.Errorf("expected context suffix, got %q", msg)
	}
	if got := SystemMessage("custom", "CTX"); got != "custom\n\nContext:\nCTX" {
		t.Errorf("unexpected custom message %q", got)
	}
}

func TestFormatAnswer_DedupesCitationsInRankOrder(t *testing.T) {
	hits := []record.Hit{
		hit("a", "", "b.pdf", 3, 0.9),
		hit("b", "", "a.pdf", 1, 0.8),
		hit("c", "", "b.pdf", 3, 0.7),
		hit("d", "", "b.pdf", 1, 0.6),
	}
	got := FormatAnswer(domain.Generation{Text: "  see page 3 \n"}, hits)

	want := []answer.Citation{
		{Source: "b.pdf", Page: 3},
		{Source: "a.pdf", Page: 1},
		{Source: "b.pdf", Page: 1},
	}
	if len(got.Citations) != len(want) {
		t.Fatalf("expected %d citations, got %v", len(want), got.Citations)
	}
	for i := range want {
		if got.Citations[i] != want[i] {
			t.Errorf("citation %d: expected %v, got %v", i, want[i], got.Citations[i])
		}
	}
	if got.Text != "see page 3" {
		t.Errorf("expected trimmed text, got %q", got.Text)
	}
	if !got.Grounded {
		t.Error("expected grounded answer")
	}
}
