package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"p9e.in/roofline/pkg/estimation"
)

// writeJSON writes a JSON response body with status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

// writeDomainError maps estimation-core errors onto HTTP statuses:
// validation 400, not-found 404, conflict 409, anything else 500.
// FormulaError never reaches here; the applier degrades it per line.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *estimation.ValidationError
	var nfe *estimation.NotFoundError
	var ce *estimation.ConflictError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
