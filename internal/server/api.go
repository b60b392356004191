// ABOUTME: JSON API handlers for clients, profile and the activity log
// ABOUTME: Maps validation and duplicate errors to 400 and 409 responses

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2389/personal-crm/internal/crm"
	"github.com/2389/personal-crm/internal/dedupe"
	"github.com/2389/personal-crm/internal/store"
	"github.com/2389/personal-crm/internal/validate"
)

// IdempotencyKeyHeader makes POST /api/clients safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ClientRequest is the JSON body for POST and PUT /api/clients.
type ClientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ProfileRequest is the JSON body for PUT /api/profile.
type ProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// ViolationResponse describes one rejected field.
type ViolationResponse struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the 400 body for rejected input.
type ValidationErrorResponse struct {
	Error      string              `json:"error"`
	Violations []ViolationResponse `json:"violations"`
}

// DuplicateErrorResponse is the 409 body for a unique field collision.
type DuplicateErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// UpdateResponse is the JSON response for PUT /api/clients/{id}.
type UpdateResponse struct {
	Updated int           `json:"updated"`
	Client  *store.Client `json:"client,omitempty"`
}

// DeleteResponse is the JSON response for DELETE /api/clients/{id}.
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// CountResponse is the JSON response for GET /api/clients/count.
type CountResponse struct {
	Count int `json:"count"`
}

// ActivityResponse is the JSON response for GET /api/activity.
type ActivityResponse struct {
	Entries []store.ActivityEntry `json:"entries"`
}

// handleListClients handles GET /api/clients.
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Refresh(r.Context(), crm.ListState{Query: r.URL.Query().Get("q")})
	if err != nil {
		s.internalError(w, "failed to list clients", err)
		return
	}
	if state.Clients == nil {
		state.Clients = []store.Client{}
	}
	s.sendJSON(w, http.StatusOK, state)
}

// handleCreateClient handles POST /api/clients. A repeated Idempotency-Key
// returns the client the first request created.
func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if key != "" {
		status, id := s.dedupe.CheckAndMark(key)
		switch status {
		case dedupe.StatusDone:
			s.replayCreate(w, r, id)
			return
		case dedupe.StatusInFlight:
			s.sendJSONError(w, http.StatusConflict, "request with this idempotency key is in progress")
			return
		}
	}

	client, err := s.svc.CreateClient(r.Context(), crm.ClientInput(req))
	if err != nil {
		if key != "" {
			s.dedupe.Release(key)
		}
		s.sendServiceError(w, "failed to create client", err)
		return
	}
	if key != "" {
		s.dedupe.Complete(key, client.ID)
	}

	w.Header().Set("Location", "/api/clients/"+strconv.FormatInt(client.ID, 10))
	s.sendJSON(w, http.StatusCreated, client)
}

func (s *Server) replayCreate(w http.ResponseWriter, r *http.Request, id int64) {
	if s.metrics != nil {
		s.metrics.RecordReplay()
	}
	client, err := s.svc.GetClient(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load replayed client", err)
		return
	}
	s.logger.Debug("idempotent replay", "id", id)
	s.sendJSON(w, http.StatusOK, client)
}

// handleCountClients handles GET /api/clients/count.
func (s *Server) handleCountClients(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.CountClients(r.Context())
	if err != nil {
		s.internalError(w, "failed to count clients", err)
		return
	}
	s.sendJSON(w, http.StatusOK, CountResponse{Count: n})
}

// handleGetClient handles GET /api/clients/{id}.
func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	client, err := s.svc.GetClient(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to get client", err)
		return
	}
	s.sendJSON(w, http.StatusOK, client)
}

// handleUpdateClient handles PUT /api/clients/{id}. A missing id reports updated 0.
func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req ClientRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	client, found, err := s.svc.UpdateClient(r.Context(), id, crm.ClientInput(req))
	if err != nil {
		s.sendServiceError(w, "failed to update client", err)
		return
	}
	resp := UpdateResponse{}
	if found {
		resp.Updated = 1
		resp.Client = client
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleDeleteClient handles DELETE /api/clients/{id}.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	found, err := s.svc.DeleteClient(r.Context(), id)
	if err != nil {
		s.internalError(w, "failed to delete client", err)
		return
	}
	resp := DeleteResponse{}
	if found {
		resp.Deleted = 1
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleGetProfile handles GET /api/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Profile(r.Context())
	if err != nil {
		s.internalError(w, "failed to load profile", err)
		return
	}
	s.sendJSON(w, http.StatusOK, p)
}

// handleSaveProfile handles PUT /api/profile.
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	p, err := s.svc.SaveProfile(r.Context(), crm.ProfileInput(req))
	if err != nil {
		s.sendServiceError(w, "failed to save profile", err)
		return
	}
	s.sendJSON(w, http.StatusOK, p)
}

// handleActivity handles GET /api/activity?limit=N.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.svc.Activity(r.Context(), limit)
	if err != nil {
		s.internalError(w, "failed to list activity", err)
		return
	}
	if entries == nil {
		entries = []store.ActivityEntry{}
	}
	s.sendJSON(w, http.StatusOK, ActivityResponse{Entries: entries})
}

// pathID parses the {id} wildcard. Anything that is not a positive integer is a 404.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		s.sendJSONError(w, http.StatusNotFound, "client not found")
		return 0, false
	}
	return id, true
}

// decodeJSON reads a bounded JSON body into v, answering 400 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// sendServiceError maps rejections to 400/409 and everything else to 500.
func (s *Server) sendServiceError(w http.ResponseWriter, msg string, err error) {
	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		resp := ValidationErrorResponse{
			Error:      "invalid input",
			Violations: make([]ViolationResponse, 0, len(verr.Violations)),
		}
		for _, v := range verr.Violations {
			resp.Violations = append(resp.Violations, ViolationResponse{
				Field:   v.Field,
				Kind:    string(v.Kind),
				Message: v.Message(),
			})
		}
		s.sendJSON(w, http.StatusBadRequest, resp)
		return
	}

	var derr *store.DuplicateError
	if errors.As(err, &derr) {
		s.sendJSON(w, http.StatusConflict, DuplicateErrorResponse{
			Error: crm.FeedbackDuplicateEmail,
			Field: derr.Field,
		})
		return
	}

	s.internalError(w, msg, err)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
}

// sendJSON writes v as JSON with the given status.
func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
