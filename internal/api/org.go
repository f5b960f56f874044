package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openleague/openleague-go/internal/org"
	"github.com/openleague/openleague-go/internal/store"
)

// OrgHandler serves the /api/orgs and /api/invitations endpoint groups.
// All routes require an authenticated session.
type OrgHandler struct {
	orgs     *org.Service
	sessions store.SessionStore
	logger   *slog.Logger
}

func NewOrgHandler(orgs *org.Service, sessions store.SessionStore, logger *slog.Logger) *OrgHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrgHandler{orgs: orgs, sessions: sessions, logger: logger}
}

// Router returns the chi router for /api/orgs.
func (h *OrgHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/active", h.handleGetActive)
	r.Put("/active", h.handleSetActive)
	r.Get("/active/roster", h.handleRoster)
	r.Get("/active/role", h.handleRole)
	r.Post("/active/invitations", h.handleInvite)
	r.Delete("/active/invitations/{id}", h.handleCancelInvitation)
	r.Delete("/active/members/{id}", h.handleRemoveMember)
	return r
}

// InvitationsRouter returns the chi router for /api/invitations.
func (h *OrgHandler) InvitationsRouter() chi.Router {
	r := chi.NewRouter()
	r.Post("/{id}/accept", h.handleAcceptInvitation)
	return r
}

func (h *OrgHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	orgs, err := h.orgs.ListOrganizations(r.Context(), user.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orgs)
}

type createOrgRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *OrgHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Slug == "" {
		WriteBadRequest(w, ReasonMissingField, "name and slug are required")
		return
	}

	created, err := h.orgs.CreateOrganization(r.Context(), user.ID, req.Name, req.Slug)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

// handleGetActive returns the session's active organization, or null
// when none is selected or the organization no longer exists.
func (h *OrgHandler) handleGetActive(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	full, err := h.orgs.GetFullOrganization(r.Context(), session.ActiveOrganizationID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, full)
}

type setActiveRequest struct {
	OrganizationID *string `json:"organization_id"`
}

func (h *OrgHandler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}

	orgID := ""
	if req.OrganizationID != nil {
		orgID = *req.OrganizationID
	}

	full, err := h.orgs.SetActiveOrganization(r.Context(), h.sessions, session, orgID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, full)
}

func (h *OrgHandler) handleRoster(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	roster, err := h.orgs.Roster(r.Context(), session.ActiveOrganizationID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, roster)
}

func (h *OrgHandler) handleRole(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	user := UserFromContext(r.Context())

	role, err := h.orgs.Role(r.Context(), session.ActiveOrganizationID, user.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	// Absence is a legitimate state, not an error.
	var body any
	if role != "" {
		body = role
	}
	WriteJSON(w, http.StatusOK, map[string]any{"role": body})
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *OrgHandler) handleInvite(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	user := UserFromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, ReasonBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		WriteBadRequest(w, ReasonMissingField, "email is required")
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}

	inv, err := h.orgs.InviteMember(r.Context(), session.ActiveOrganizationID, user.ID, req.Email, req.Role)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, inv)
}

func (h *OrgHandler) handleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.CancelInvitation(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *OrgHandler) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	member, err := h.orgs.AcceptInvitation(r.Context(), chi.URLParam(r, "id"), user)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, member)
}

func (h *OrgHandler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	if err := h.orgs.RemoveMember(r.Context(), session.ActiveOrganizationID, chi.URLParam(r, "id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
