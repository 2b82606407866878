package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tkogut/scalebridge/internal/logging"
	"github.com/tkogut/scalebridge/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.WithOperation("httpapi").WithError(err).Error("failed encoding response body")
	}
}

// writeError maps a taxonomy error's Kind to a status code (spec.md §6)
// and writes {success: false, error: "..."}.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	kinded, ok := err.(types.Kinded)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kinded.Kind() {
	case types.KindDeviceNotFnd:
		return http.StatusNotFound
	case types.KindValidation, types.KindInvalidCmd:
		return http.StatusBadRequest
	case types.KindTimeout:
		return http.StatusGatewayTimeout
	case types.KindConnection, types.KindProtocol:
		return http.StatusBadGateway
	case types.KindConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
