package chi

import (
	"github.com/kailas-cloud/ragdex/internal/domain/answer"
	domcol "github.com/kailas-cloud/ragdex/internal/domain/collection"
	"github.com/kailas-cloud/ragdex/internal/domain/record"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest        = "bad_request"
	codeUnauthorized      = "unauthorized"
	codeInvalidQuery      = "invalid_query"
	codeInvalidChunking   = "invalid_chunk_config"
	codeSourceNotFound    = "source_not_found"
	codeCollectionMissing = "collection_not_found"
	codeUnsupportedFormat = "unsupported_format"
	codeDimensionMismatch = "dimension_mismatch"
	codeProviderRetryable = "provider_unavailable"
	codeProviderFailed    = "provider_error"
	codeInternal          = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ingestRequest struct {
	Source       string `json:"source"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	Replace      bool   `json:"replace,omitempty"`
}

type ingestResponse struct {
	RunID      string  `json:"run_id"`
	Source     string  `json:"source"`
	Collection string  `json:"collection"`
	Pages      int     `json:"pages"`
	Chunks     int     `json:"chunks"`
	Dimension  int     `json:"dimension"`
	DurationMs float64 `json:"duration_ms"`
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type citation struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

type queryResponse struct {
	Answer    string     `json:"answer"`
	Grounded  bool       `json:"grounded"`
	Citations []citation `json:"citations"`
}

type hitResponse struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
}

type searchResponse struct {
	Items []hitResponse `json:"items"`
	Count int           `json:"count"`
}

type collectionResponse struct {
	Name        string `json:"name"`
	Dimension   int    `json:"dimension"`
	RecordCount int    `json:"record_count"`
	CreatedAt   int64  `json:"created_at"`
}

type collectionListResponse struct {
	Items []collectionResponse `json:"items"`
	Count int                  `json:"count"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func reportToResponse(r ingestuc.Report) ingestResponse {
	return ingestResponse{
		RunID:      r.RunID,
		Source:     r.Source,
		Collection: r.Collection,
		Pages:      r.Pages,
		Chunks:     r.Chunks,
		Dimension:  r.Dimension,
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
	}
}

func answerToResponse(a answer.Answer) queryResponse {
	cites := make([]citation, len(a.Citations))
	for i, c := range a.Citations {
		cites[i] = citation{Source: c.Source, Page: c.Page}
	}
	return queryResponse{Answer: a.Text, Grounded: a.Grounded, Citations: cites}
}

func hitsToResponse(hits []record.Hit) searchResponse {
	items := make([]hitResponse, len(hits))
	for i, h := range hits {
		r := h.Record()
		items[i] = hitResponse{ID: r.ID(), Score: h.Score(), Text: r.Text(), Source: r.Source(), Page: r.Page()}
	}
	return searchResponse{Items: items, Count: len(items)}
}

func collectionToResponse(c domcol.Collection) collectionResponse {
	return collectionResponse{
		Name:        c.Name(),
		Dimension:   c.Dimension(),
		RecordCount: c.RecordCount(),
		CreatedAt:   c.CreatedAt(),
	}
}
