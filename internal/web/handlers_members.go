package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

// maxJSONBody bounds member create and update payloads.
const maxJSONBody = 1 << 20

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := core.ListParams{
		Filter:   parseMemberFilter(r),
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "pageSize", core.DefaultPageSize),
		Desc:     strings.EqualFold(q.Get("dir"), "desc"),
	}
	if sort := q.Get("sort"); sort != "" {
		for _, f := range strings.Split(sort, ",") {
			params.Sort = append(params.Sort, strings.TrimSpace(f))
		}
	}

	page, err := s.service.ListMembers(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCountMembers(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.CountMembers(r.Context(), parseMemberFilter(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	bag, err := decodeBag(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.service.CreateMember(r.Context(), bag)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	bag, err := decodeBag(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	m, err := s.service.UpdateMember(r.Context(), chi.URLParam(r, "id"), bag)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Member deleted"})
}

// handleBulkDeleteMembers deletes by memberType, status and beforeJoined.
// Without any filter the request must carry confirm=true.
func (s *Server) handleBulkDeleteMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.MemberFilter{
		MemberType: strings.TrimSpace(q.Get("memberType")),
		Status:     strings.TrimSpace(q.Get("status")),
	}
	if v := q.Get("beforeJoined"); v != "" {
		t, ok := core.ParseMembershipDate(v)
		if !ok {
			respondError(w, r, errBadDate)
			return
		}
		f.JoinedBefore = &t
	}
	confirm, _ := strconv.ParseBool(q.Get("confirm"))

	res, err := s.service.DeleteMembers(r.Context(), f, confirm)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.service.AuditTrail(r.Context(), core.AuditFilter{
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		Limit:      parseIntParam(r, "limit", core.DefaultAuditLimit),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// parseMemberFilter reads listing filters from the query string.
func parseMemberFilter(r *http.Request) core.MemberFilter {
	q := r.URL.Query()
	f := core.MemberFilter{
		Gender:         strings.TrimSpace(q.Get("gender")),
		EducationLevel: strings.TrimSpace(q.Get("educationLevel")),
		MemberType:     strings.TrimSpace(q.Get("memberType")),
		Status:         strings.TrimSpace(q.Get("status")),
		NameContains:   strings.TrimSpace(q.Get("q")),
	}
	if t, ok := core.ParseMembershipDate(q.Get("beforeJoined")); ok {
		f.JoinedBefore = &t
	}
	return f
}

// parseIntParam parses a positive integer query parameter.
func parseIntParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// decodeBag reads a JSON object into a field bag.
func decodeBag(w http.ResponseWriter, r *http.Request) (core.RawFieldBag, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	var bag core.RawFieldBag
	if err := json.NewDecoder(r.Body).Decode(&bag); err != nil || bag == nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, errBadJSON
	}
	return bag, nil
}
