package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const codeInsufficientQuota = "insufficient_quota"

// apiFailure is a provider error reduced to what the retry policy needs.
type apiFailure struct {
	status    int
	transient bool
	errType   string
	err       error
}

// classify maps a go-openai error to status, retryability and a metrics label.
// Rate limits are transient unless the account is out of quota; 5xx and
// transport failures are transient; other 4xx are fatal.
func classify(err error) apiFailure {
	if errors.Is(err, context.Canceled) {
		return apiFailure{errType: "canceled", err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apiFailure{transient: true, errType: "timeout", err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		f := byStatus(apiErr.HTTPStatusCode)
		if code, ok := apiErr.Code.(string); ok && code == codeInsufficientQuota {
			f.transient = false
			f.errType = "quota"
		}
		f.err = fmt.Errorf("api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		return f
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		f := byStatus(reqErr.HTTPStatusCode)
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		f.err = fmt.Errorf("api error %d: %s", reqErr.HTTPStatusCode, detail)
		return f
	}

	return apiFailure{transient: true, errType: "transport", err: err}
}

func byStatus(status int) apiFailure {
	switch {
	case status == http.StatusTooManyRequests:
		return apiFailure{status: status, transient: true, errType: "rate_limit"}
	case status == http.StatusRequestTimeout:
		return apiFailure{status: status, transient: true, errType: "timeout"}
	case status >= 500:
		return apiFailure{status: status, transient: true, errType: "server_error"}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apiFailure{status: status, errType: "auth"}
	default:
		return apiFailure{status: status, errType: "bad_request"}
	}
}

// extractDetail extracts the "detail" field from a JSON error body (TEI / Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
