package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gestaosocial/internal/core"
	"gestaosocial/internal/export"
	applog "gestaosocial/internal/log"
	"gestaosocial/internal/state"
)

// errBadRequest marks malformed input: undecodable bodies and unparseable
// query parameters.
var errBadRequest = errors.New("bad request")

// validationError wraps a domain validation failure so it maps to 422.
type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

func invalid(err error) error { return validationError{err: err} }

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps store, domain and export errors to status codes. A failed
// remote write carries the message shown to the operator.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := applog.FromContext(r.Context())

	var (
		werr *state.WriteError
		aerr *state.AuthError
		verr validationError
	)
	switch {
	case errors.As(err, &werr):
		writeJSONError(w, http.StatusBadGateway, werr.Error())
	case errors.As(err, &aerr):
		writeJSONError(w, http.StatusUnauthorized, aerr.Message)
	case errors.Is(err, state.ErrNotAuthenticated):
		writeJSONError(w, http.StatusUnauthorized, "Sessão não autenticada.")
	case errors.Is(err, state.ErrFamilyNotFound):
		writeJSONError(w, http.StatusNotFound, "Família não encontrada.")
	case errors.Is(err, state.ErrTransactionNotFound):
		writeJSONError(w, http.StatusNotFound, "Lançamento não encontrado.")
	case errors.Is(err, export.ErrNothingToExport):
		writeJSONError(w, http.StatusNotFound, "Nenhum dado para exportar.")
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusUnprocessableEntity, "Dados inválidos: "+verr.Error())
	case errors.Is(err, errBadRequest):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Unhandled request error", applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeJSONError(w, http.StatusInternalServerError, "Erro interno.")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// parsePeriod reads year and month query parameters, defaulting to the
// current month.
func parsePeriod(r *http.Request, now time.Time) (core.Period, error) {
	p := core.Period{Year: now.Year(), Month: now.Month()}
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: invalid year %q", errBadRequest, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: invalid month %q", errBadRequest, v)
		}
		p.Month = time.Month(m)
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, invalid(err)
	}
	return p, nil
}

func optionalInt(q string, name string) (*int, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(q)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, q)
	}
	return &v, nil
}

// writeDownload sends body as an attachment.
func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
