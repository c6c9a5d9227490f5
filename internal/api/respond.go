package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/soaringjerry/growpoint/internal/middleware"
	"github.com/soaringjerry/growpoint/internal/services"
	"github.com/soaringjerry/growpoint/internal/utils"
)

// maxRequestBody bounds JSON request bodies; seven comments of 2000 chars fit
// comfortably.
const maxRequestBody = 64 << 10

// statusClientClosed follows the nginx convention for requests the client
// abandoned.
const statusClientClosed = 499

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		return services.NewInvalidError(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorTooManyRequests:
		return http.StatusTooManyRequests
	case services.ErrorBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps service errors onto HTTP statuses. Anything outside the
// taxonomy is logged and reported as a generic 500.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	log := middleware.LoggerFromContext(r.Context(), rt.log.Entry)

	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), errorBody{Error: se.Message, Code: string(se.Code)})
		return
	}
	switch {
	case errors.Is(err, services.ErrSuperseded):
		log.Debug("dashboard request superseded")
		writeJSON(w, http.StatusConflict, errorBody{Error: utils.T(locale, "error.superseded"), Code: "superseded"})
	case errors.Is(err, context.Canceled):
		w.WriteHeader(statusClientClosed)
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Warn("request timed out")
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: err.Error()})
	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: utils.T(locale, "error.internal")})
	}
}
