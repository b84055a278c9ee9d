package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ukane-philemon/srms/internal/db"
	customerror "github.com/ukane-philemon/srms/internal/errors"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleError writes the status matching err. Errors that are not
// db.ErrorInvalidRequest are logged and replaced with a generic error.
func (s *Server) handleError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrorNotFound):
		writeError(res, http.StatusNotFound, err)
	case errors.Is(err, db.ErrorDuplicateKey):
		writeError(res, http.StatusConflict, err)
	case errors.Is(err, db.ErrorInvalidRequest):
		writeError(res, http.StatusBadRequest, err)
	default:
		s.log.Error("Server error", zap.Error(err))
		writeError(res, http.StatusInternalServerError, &customerror.ErrorUnknown{})
	}
}

func writeError(res http.ResponseWriter, status int, err error) {
	writeJSON(res, status, &errorResponse{Error: err.Error()})
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_ = json.NewEncoder(res).Encode(v)
}
