package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chishiki/chishiki/internal/entities"
	"github.com/chishiki/chishiki/internal/repositories"
	"github.com/chishiki/chishiki/pkg/cache"
)

const (
	// AdminLevel is the authority level that marks an administrator.
	// The value comes from the legacy users schema and is compared with
	// equality only; no further interpretation happens downstream.
	AdminLevel = 3

	// maxSubjectKeyLen bounds the subject key a credential may carry.
	// Anything longer is treated as garbage, not as an error.
	maxSubjectKeyLen = 256
)

// Credential is the opaque value extracted at the request boundary.
// It may be absent or malformed; neither is an error condition.
type Credential string

// ResolverInterface defines the interface for identity resolution
type ResolverInterface interface {
	Resolve(ctx context.Context, cred Credential) (entities.Identity, error)
}

// Resolver turns an opaque credential into an Identity.
// Every degenerate input (missing, malformed, unknown subject,
// soft-deleted subject) resolves to Anonymous; only a failing store
// lookup surfaces as an error.
type Resolver struct {
	store    repositories.CredentialStore
	cache    cache.Cache   // Optional cache for subject lookups
	cacheTTL time.Duration // TTL for cached subjects
}

// NewResolver creates a new Resolver without caching
func NewResolver(store repositories.CredentialStore) *Resolver {
	return &Resolver{store: store}
}

// NewResolverWithCache creates a new Resolver that caches healthy
// subject lookups. Unknown and soft-deleted subjects are never cached,
// so a deactivated account drops to Anonymous on its next lookup.
func NewResolverWithCache(store repositories.CredentialStore, c cache.Cache, ttl time.Duration) *Resolver {
	return &Resolver{
		store:    store,
		cache:    c,
		cacheTTL: ttl,
	}
}

// Resolve resolves a credential to an Identity.
// A nil error with an anonymous identity is the normal outcome for any
// credential that cannot be tied to an active subject. A non-nil error
// always means the lookup itself failed and must propagate.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (entities.Identity, error) {
	subjectKey, ok := parseCredential(cred)
	if !ok {
		return entities.Anonymous(), nil
	}

	subject, err := r.lookupSubject(ctx, subjectKey)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return entities.Anonymous(), nil
		}
		return entities.Anonymous(), fmt.Errorf("identity: failed to look up subject: %w", err)
	}

	if subject.Deleted() {
		// The subject once existed but must now behave as if it never did.
		return entities.Anonymous(), nil
	}

	return entities.Authenticated(subject.UserID, subject.Level == AdminLevel, subject.GroupIDs), nil
}

// lookupSubject fetches the subject, going through the cache when enabled.
func (r *Resolver) lookupSubject(ctx context.Context, subjectKey string) (*entities.Subject, error) {
	if r.cache != nil {
		if cached, found := r.cache.Get(ctx, subjectKey); found {
			if subject, ok := cached.(*entities.Subject); ok {
				return subject, nil
			}
		}
	}

	subject, err := r.store.FindBySubject(ctx, subjectKey)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && !subject.Deleted() {
		_ = r.cache.Set(ctx, subjectKey, subject, r.cacheTTL)
	}

	return subject, nil
}

// parseCredential extracts the subject key from a credential.
// Returns false for anything that cannot possibly name a subject.
func parseCredential(cred Credential) (string, bool) {
	key := strings.TrimSpace(string(cred))
	key = strings.TrimSpace(strings.TrimPrefix(key, "Bearer "))

	if key == "" || len(key) > maxSubjectKeyLen {
		return "", false
	}
	for _, r := range key {
		if r <= 0x20 || r == 0x7f {
			return "", false
		}
	}
	return key, true
}
