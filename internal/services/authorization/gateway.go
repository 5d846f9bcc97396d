package authorization

import (
	"context"
	"errors"
	"log"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
	"github.com/chishiki/chishiki/internal/services/identity"
)

// DecisionObserver receives every evaluated decision, e.g. for metrics.
type DecisionObserver interface {
	ObserveDecision(action entities.Action, decision entities.Decision)
}

// Grant is the successful outcome of an authorization request: the
// resolved identity and the loaded item, handed to the wrapped operation.
type Grant struct {
	Identity entities.Identity
	Item     *entities.ContentItem
}

// Gateway sequences one authorization decision per request:
// resolve the identity, load the item, evaluate the predicate for the
// requested action, and map refusals to typed failures.
type Gateway struct {
	resolver identity.ResolverInterface
	contents repositories.ContentRepository
	views    repositories.ViewRecorder // Optional post-Allow view recording
	observer DecisionObserver          // Optional decision metrics
}

// NewGateway creates a new Gateway.
// views and observer may be nil.
func NewGateway(
	resolver identity.ResolverInterface,
	contents repositories.ContentRepository,
	views repositories.ViewRecorder,
	observer DecisionObserver,
) *Gateway {
	return &Gateway{
		resolver: resolver,
		contents: contents,
		views:    views,
		observer: observer,
	}
}

// Authorize performs one authorization decision.
//
// Failure mapping: a failing resolver or repository yields
// FailureInfrastructure; an absent (or soft-deleted) item yields
// FailureNotFound; a Deny yields FailureUnauthenticated for anonymous
// callers and FailureForbidden for authenticated ones. Forbidden is only
// ever returned for an item that exists, so an authenticated caller can
// tell a 403 from a 404 — the shipped system behaves this way and any
// adopting team should be told before relying on it.
func (g *Gateway) Authorize(
	ctx context.Context,
	action entities.Action,
	contentID int64,
	cred identity.Credential,
) (*Grant, error) {
	callerID, err := g.resolver.Resolve(ctx, cred)
	if err != nil {
		return nil, newInfrastructure(err)
	}

	item, err := g.contents.GetByID(ctx, contentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newNotFound()
		}
		return nil, newInfrastructure(err)
	}

	decision := ForAction(action)(callerID, item)
	if g.observer != nil {
		g.observer.ObserveDecision(action, decision)
	}

	if !decision.Allowed() {
		if !callerID.IsAuthenticated() {
			return nil, newUnauthenticated()
		}
		return nil, newForbidden()
	}

	if action == entities.ActionView {
		g.recordView(item.ID, callerID)
	}

	return &Grant{Identity: callerID, Item: item}, nil
}

// recordView dispatches post-Allow view recording.
// It runs detached from the request: the response never waits on it and
// a failure is logged, never surfaced as an authorization failure.
func (g *Gateway) recordView(contentID int64, callerID entities.Identity) {
	if g.views == nil {
		return
	}
	go func() {
		if err := g.views.RecordView(context.Background(), contentID, callerID); err != nil {
			log.Printf("failed to record view for content %d: %v", contentID, err)
		}
	}()
}
