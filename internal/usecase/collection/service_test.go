package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
)

// --- Mocks ---

type mockRepo struct {
	getResult  domcol.Collection
	listResult []domcol.Collection
	getErr     error
	listErr    error
	deleteErr  error
	deleted    string
	calls      int
}

func (m *mockRepo) Get(_ context.Context, _ string) (domcol.Collection, error) {
	m.calls++
	return m.getResult, m.getErr
}

func (m *mockRepo) List(_ context.Context) ([]domcol.Collection, error) {
	m.calls++
	return m.listResult, m.listErr
}

func (m *mockRepo) Delete(_ context.Context, name string) error {
	m.calls++
	m.deleted = name
	return m.deleteErr
}

// --- Tests ---

func TestGet_Success(t *testing.T) {
	repo := &mockRepo{getResult: domcol.Reconstruct("docs", 384, 1000, 12)}
	svc := New(repo)

	col, err := svc.Get(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "docs" || col.Dimension() != 384 || col.RecordCount() != 12 {
		t.Errorf("unexpected collection: %+v", col)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockRepo{getErr: domain.ErrCollectionNotFound})

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestGet_InvalidName(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	_, err := svc.Get(context.Background(), "no spaces")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if repo.calls != 0 {
		t.Error("repository should not be called")
	}
}

func TestList_Success(t *testing.T) {
	repo := &mockRepo{listResult: []domcol.Collection{
		domcol.Reconstruct("a", 384, 1, 0),
		domcol.Reconstruct("b", 768, 2, 5),
	}}
	svc := New(repo)

	cols, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("expected 2 collections, got %d", len(cols))
	}
}

func TestList_Error(t *testing.T) {
	svc := New(&mockRepo{listErr: errors.New("conn refused")})

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete_Success(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if err := svc.Delete(context.Background(), "docs"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deleted != "docs" {
		t.Errorf("expected docs deleted, got %q", repo.deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := New(&mockRepo{deleteErr: domain.ErrCollectionNotFound})

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}
