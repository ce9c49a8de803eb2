package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
	sentinelHandler(domain.ErrInvalidChunkConfig, http.StatusBadRequest, codeInvalidChunking),
	sentinelHandler(domain.ErrSourceNotFound, http.StatusNotFound, codeSourceNotFound),
	sentinelHandler(domain.ErrCollectionNotFound, http.StatusNotFound, codeCollectionMissing),
	sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, codeUnsupportedFormat),
	sentinelHandler(domain.ErrDimensionMismatch, http.StatusConflict, codeDimensionMismatch),
	serviceErrorHandler,
}

// sentinelHandler maps a sentinel to a status. Caller errors carry the full message
// since it names the offending input.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// serviceErrorHandler maps provider failures: retryable to 503, fatal to 502.
// The provider message is not exposed.
func serviceErrorHandler(w http.ResponseWriter, err error) bool {
	var se *domain.ServiceError
	if !errors.As(err, &se) {
		return false
	}
	if se.Retryable() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, codeProviderRetryable, se.Service+" service temporarily unavailable")
		return true
	}
	writeError(w, http.StatusBadGateway, codeProviderFailed, se.Service+" service error")
	return true
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
