package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/attaboy/matchedge/internal/domain"
)

// RespondJSON writes data as the response body with the given status. A nil
// data writes the header only.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondError maps a domain error to its HTTP status and code, unwrapping
// through any fmt.Errorf layers the services added. Untyped errors become a
// bare 500; their detail stays in the logs.
func RespondError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		RespondJSON(w, appErr.Status, map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}
	RespondJSON(w, http.StatusInternalServerError, map[string]string{
		"code":    "INTERNAL_ERROR",
		"message": "internal server error",
	})
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
