package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the scopes of a provider could not be enumerated. Provider-fatal.
	ErrAuth = errors.New("cannot enumerate scopes")
	// ErrScopeNotFound means an explicitly requested scope did not resolve. Scope-fatal.
	ErrScopeNotFound = errors.New("scope not found")
	// ErrFetch means listing or describing resources within a scope failed. Scope-fatal.
	ErrFetch = errors.New("fetch failed")
	// ErrZeroRows means a run finished without writing a single data row.
	ErrZeroRows = errors.New("no rows written")
	// ErrMissingTool means a required external command is not installed. Run-fatal.
	ErrMissingTool = errors.New("required tool not found")
)

// ScopeError ties one of the error kinds above to a provider and scope.
type ScopeError struct {
	Kind     error
	Provider Provider
	Scope    string
	Err      error
}

// NewScopeError builds a ScopeError.
func NewScopeError(kind error, provider Provider, scope string, err error) *ScopeError {
	return &ScopeError{Kind: kind, Provider: provider, Scope: scope, Err: err}
}

func (e *ScopeError) Error() string {
	target := string(e.Provider)
	if e.Scope != "" {
		target += "/" + e.Scope
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", target, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", target, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *ScopeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
