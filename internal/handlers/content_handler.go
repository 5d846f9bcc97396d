package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
	"github.com/chishiki/chishiki/internal/services/authorization"
	"github.com/chishiki/chishiki/internal/services/identity"
)

// GatewayInterface defines the interface for authorization decisions
type GatewayInterface interface {
	Authorize(ctx context.Context, action entities.Action, contentID int64, cred identity.Credential) (*authorization.Grant, error)
}

// ContentHandler handles all content HTTP requests.
// Every item operation goes through the authorization gateway; the
// handler never evaluates access rules itself.
type ContentHandler struct {
	gateway  GatewayInterface
	resolver identity.ResolverInterface
	contents repositories.ContentRepository
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(
	gateway GatewayInterface,
	resolver identity.ResolverInterface,
	contents repositories.ContentRepository,
) *ContentHandler {
	return &ContentHandler{
		gateway:  gateway,
		resolver: resolver,
		contents: contents,
	}
}

// Register registers all content routes on the given mux
func (h *ContentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /contents", h.List)
	mux.HandleFunc("GET /contents/{id}", h.Get)
	mux.HandleFunc("PUT /contents/{id}", h.Update)
	mux.HandleFunc("DELETE /contents/{id}", h.Delete)
}

// contentResponse is the JSON representation of a content item
type contentResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Visibility  int       `json:"visibility"`
	ACLGroupIDs []int64   `json:"acl_group_ids,omitempty"`
	EditorIDs   []int64   `json:"editor_ids,omitempty"`
	ViewCount   int64     `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// updateContentRequest is the JSON body for PUT /contents/{id}.
// PUT replaces all mutable fields, including the ACL lists.
type updateContentRequest struct {
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Visibility  int     `json:"visibility"`
	ACLGroupIDs []int64 `json:"acl_group_ids"`
	EditorIDs   []int64 `json:"editor_ids"`
}

type errorResponse struct {
	Kind       string `json:"kind"`
	MessageKey string `json:"message_key"`
}

// Get handles GET /contents/{id}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	contentID, ok := pathID(w, r)
	if !ok {
		return
	}

	grant, err := h.gateway.Authorize(r.Context(), entities.ActionView, contentID, credential(r))
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(grant.Item))
}

// List handles GET /contents
// Anonymous callers get the public listing; no authorization failure is
// possible here because the query itself is scoped to the caller.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, err := h.resolver.Resolve(r.Context(), credential(r))
	if err != nil {
		writeFailure(w, err)
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	items, err := h.contents.ListAccessible(r.Context(), callerID, limit, offset)
	if err != nil {
		writeFailure(w, err)
		return
	}

	responses := make([]*contentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toContentResponse(item))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contents": responses})
}

// Update handles PUT /contents/{id}
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	contentID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request.invalid")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "content.title.required")
		return
	}
	visibility := entities.Visibility(req.Visibility)
	switch visibility {
	case entities.VisibilityPrivate, entities.VisibilityPublic, entities.VisibilityProtected:
	default:
		writeError(w, http.StatusBadRequest, "content.visibility.invalid")
		return
	}

	grant, err := h.gateway.Authorize(r.Context(), entities.ActionEdit, contentID, credential(r))
	if err != nil {
		writeFailure(w, err)
		return
	}

	item := grant.Item
	item.Title = req.Title
	item.Body = req.Body
	item.Visibility = visibility
	item.ACLGroupIDs = req.ACLGroupIDs
	item.EditorIDs = req.EditorIDs

	if err := h.contents.Update(r.Context(), item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "content.not.found")
			return
		}
		log.Printf("failed to update content %d: %v", contentID, err)
		writeError(w, http.StatusInternalServerError, "server.error")
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(item))
}

// Delete handles DELETE /contents/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	contentID, ok := pathID(w, r)
	if !ok {
		return
	}

	grant, err := h.gateway.Authorize(r.Context(), entities.ActionDelete, contentID, credential(r))
	if err != nil {
		writeFailure(w, err)
		return
	}

	if err := h.contents.SoftDelete(r.Context(), contentID, grant.Identity.UserID()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			writeError(w, http.StatusNotFound, "content.not.found")
			return
		}
		log.Printf("failed to delete content %d: %v", contentID, err)
		writeError(w, http.StatusInternalServerError, "server.error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// credential extracts the caller credential from the Authorization header.
// The header value is passed through opaquely; parsing belongs to the
// identity resolver.
func credential(r *http.Request) identity.Credential {
	return identity.Credential(r.Header.Get("Authorization"))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "request.invalid")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func toContentResponse(item *entities.ContentItem) *contentResponse {
	return &contentResponse{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Body:        item.Body,
		Visibility:  int(item.Visibility),
		ACLGroupIDs: item.ACLGroupIDs,
		EditorIDs:   item.EditorIDs,
		ViewCount:   item.ViewCount,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// writeFailure maps an authorization failure to an HTTP response.
// Unrecognized errors are treated as infrastructure failures so a bug
// can never widen access.
func writeFailure(w http.ResponseWriter, err error) {
	var failure *authorization.Failure
	if !errors.As(err, &failure) {
		log.Printf("unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "server.error")
		return
	}

	status := http.StatusInternalServerError
	switch failure.Kind {
	case authorization.FailureUnauthenticated:
		status = http.StatusUnauthorized
	case authorization.FailureForbidden:
		status = http.StatusForbidden
	case authorization.FailureNotFound:
		status = http.StatusNotFound
	case authorization.FailureInfrastructure:
		log.Printf("infrastructure failure: %v", failure)
	}

	writeJSON(w, status, errorResponse{
		Kind:       string(failure.Kind),
		MessageKey: failure.MessageKey,
	})
}

func writeError(w http.ResponseWriter, status int, messageKey string) {
	kind := "invalid_request"
	switch status {
	case http.StatusNotFound:
		kind = string(authorization.FailureNotFound)
	case http.StatusInternalServerError:
		kind = string(authorization.FailureInfrastructure)
	}
	writeJSON(w, status, errorResponse{Kind: kind, MessageKey: messageKey})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
