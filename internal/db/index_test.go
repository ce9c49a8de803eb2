package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_RecordSchema(t *testing.T) {
	idx, err := NewIndex("ragdex:idx:docs").
		Prefix("ragdex:rec:docs:").
		Text("text").
		Tag("source").
		Numeric("page").
		VectorHNSW("vector", 384, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx.Fields) != 4 {
		t.Fatalf("fields count = %d, want 4", len(idx.Fields))
	}
	v := idx.Fields[3]
	if v.Type != IndexFieldVector || v.VectorDim != 384 || v.VectorM != 16 || v.VectorEFConstruct != 200 {
		t.Errorf("unexpected vector field: %+v", v)
	}
	s := idx.String()
	if !strings.Contains(s, "PREFIX ragdex:rec:docs:") || !strings.Contains(s, "VECTOR HNSW DIM 384") {
		t.Errorf("unexpected debug string: %s", s)
	}
}

func TestIndexBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		b    *IndexBuilder
	}{
		{"empty name", NewIndex("").Tag("a")},
		{"bad name", NewIndex("bad name").Tag("a")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Tag("a").Numeric("a")},
		{"zero dim", NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.b.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	if !IsValidIdentifier("ragdex:idx:my-docs_1") {
		t.Error("expected valid identifier")
	}
	if IsValidIdentifier("has space") || IsValidIdentifier("") {
		t.Error("expected invalid identifier")
	}
}
