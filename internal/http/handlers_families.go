package http

import (
	"fmt"
	"net/http"
	"strconv"

	"gestaosocial/internal/core"
	applog "gestaosocial/internal/log"
	"gestaosocial/internal/state"
)

type familyView struct {
	core.Family
	WhatsAppLink string `json:"whatsappLink,omitempty"`
}

func viewFamily(f core.Family) familyView {
	phone := f.WhatsApp
	if phone == "" {
		phone = f.Phone
	}
	return familyView{Family: f, WhatsAppLink: core.WhatsAppLink(phone)}
}

// parseFamilyFilter reads q, status, babies, minAge and maxAge.
func parseFamilyFilter(r *http.Request) (core.FamilyFilter, error) {
	q := r.URL.Query()
	ff := core.FamilyFilter{
		Query:  sanitizeInput(q.Get("q")),
		Status: core.Status(q.Get("status")),
	}
	if ff.Status != "" && ff.Status != "All" && !ff.Status.IsValid() {
		return core.FamilyFilter{}, invalid(fmt.Errorf("%w: %q", core.ErrInvalidStatus, ff.Status))
	}
	if v := q.Get("babies"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return core.FamilyFilter{}, fmt.Errorf("%w: invalid babies %q", errBadRequest, v)
		}
		ff.Age.BabiesOnly = b
	}
	var err error
	if ff.Age.Min, err = optionalInt(q.Get("minAge"), "minAge"); err != nil {
		return core.FamilyFilter{}, err
	}
	if ff.Age.Max, err = optionalInt(q.Get("maxAge"), "maxAge"); err != nil {
		return core.FamilyFilter{}, err
	}
	return ff, nil
}

func (s *Server) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	ff, err := parseFamilyFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	families := core.FilterFamilies(s.store.Families(), ff)
	out := make([]familyView, 0, len(families))
	for _, f := range families {
		out = append(out, viewFamily(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var draft core.FamilyDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := core.NewFamily(draft, s.now())
	if err != nil {
		writeError(w, r, invalid(err))
		return
	}
	if err := s.store.AddFamily(r.Context(), f); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Family registered", applog.FieldFamilyID, f.ID, "code", f.Code)
	writeJSON(w, http.StatusCreated, viewFamily(f))
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	f, ok := s.store.Family(r.PathValue("id"))
	if !ok {
		writeError(w, r, state.ErrFamilyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewFamily(f))
}

// handleUpdateFamily replaces the family profile; history in the body is
// ignored. The path id wins and a different id in the body is rejected.
func (s *Server) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var f core.Family
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ID != "" && f.ID != id {
		writeError(w, r, invalid(fmt.Errorf("family id %q does not match path", f.ID)))
		return
	}
	f.ID = id
	f.Normalize()
	if err := f.Validate(); err != nil {
		writeError(w, r, invalid(err))
		return
	}
	if err := s.store.UpdateFamily(r.Context(), f); err != nil {
		writeError(w, r, err)
		return
	}
	updated, _ := s.store.Family(id)
	writeJSON(w, http.StatusOK, viewFamily(updated))
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.RemoveFamily(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Family removed", applog.FieldFamilyID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.store.Family(id); !ok {
		writeError(w, r, state.ErrFamilyNotFound)
		return
	}
	var draft core.RecordDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := core.NewHistoryRecord(draft, s.now())
	if err != nil {
		writeError(w, r, invalid(err))
		return
	}
	if err := s.store.AddHistoryRecord(r.Context(), id, rec); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
