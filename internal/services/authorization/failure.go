package authorization

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an authorization request did not succeed.
type FailureKind string

const (
	// FailureUnauthenticated: no usable identity and the action needs one.
	FailureUnauthenticated FailureKind = "unauthenticated"
	// FailureForbidden: valid identity, insufficient rights. Returning
	// this instead of not_found deliberately reveals that the item
	// exists to authenticated callers; see the gateway notes.
	FailureForbidden FailureKind = "forbidden"
	// FailureNotFound: the item does not exist or is soft-deleted.
	FailureNotFound FailureKind = "not_found"
	// FailureInfrastructure: a collaborator (store, repository) failed.
	FailureInfrastructure FailureKind = "infrastructure"
)

// Failure is the typed outcome of a refused authorization request.
// MessageKey is a stable, localizable key for the client; Err carries
// server-side detail and is never meant for response bodies.
type Failure struct {
	Kind       FailureKind
	MessageKey string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("authorization %s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("authorization %s", f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newUnauthenticated() *Failure {
	return &Failure{Kind: FailureUnauthenticated, MessageKey: "auth.login.required"}
}

func newForbidden() *Failure {
	return &Failure{Kind: FailureForbidden, MessageKey: "content.access.denied"}
}

func newNotFound() *Failure {
	return &Failure{Kind: FailureNotFound, MessageKey: "content.not.found"}
}

func newInfrastructure(err error) *Failure {
	return &Failure{Kind: FailureInfrastructure, MessageKey: "server.error", Err: err}
}

// KindOf returns the failure kind carried by err.
// Errors that are not authorization failures classify as infrastructure,
// so an unrecognized error can never read as a grant or a clean 404.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureInfrastructure
}

// IsForbidden reports whether err is a Forbidden failure.
func IsForbidden(err error) bool {
	return KindOf(err) == FailureForbidden
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == FailureNotFound
}

// IsUnauthenticated reports whether err is an Unauthenticated failure.
func IsUnauthenticated(err error) bool {
	return KindOf(err) == FailureUnauthenticated
}
