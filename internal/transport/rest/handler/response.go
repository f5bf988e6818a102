package handler

import (
	"biteswipe/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a coordinator error kind onto a status code.
// Internal details never reach the client.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.KindOf(err)
	switch kind {
	case service.KindNotFound:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: kind.String()})
	case service.KindInternal, service.KindConflict:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Kind: kind.String()})
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: kind.String()})
	}
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted when allowEmpty is set.
func decode(r *http.Request, dst interface{}, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return errors.New("invalid request body")
		}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New("invalid field " + verrs[0].Field() + ": " + verrs[0].Tag())
		}
		return err
	}
	return nil
}
