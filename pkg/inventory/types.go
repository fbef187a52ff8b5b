package inventory

import "fmt"

// Provider identifies a cloud provider. The set is closed.
type Provider string

const (
	// ProviderAzure covers Azure subscriptions, VMs, Arc machines and Log Analytics workspaces
	ProviderAzure Provider = "azure"
	// ProviderGCP covers Google Cloud projects
	ProviderGCP Provider = "gcp"
)

// Scope is a provider-specific collection boundary: an Azure subscription,
// a Log Analytics workspace, or a GCP project. It is immutable once resolved.
type Scope struct {
	Provider    Provider
	ID          string
	DisplayName string
}

// Label returns the display name of the scope, or its ID when no name is known.
func (s Scope) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}

func (s Scope) String() string {
	if s.DisplayName != "" && s.DisplayName != s.ID {
		return fmt.Sprintf("%s:%s (%s)", s.Provider, s.DisplayName, s.ID)
	}
	return fmt.Sprintf("%s:%s", s.Provider, s.ID)
}

// Warning records a non-fatal problem for one provider or scope.
type Warning struct {
	Provider Provider `json:"provider" yaml:"provider"`
	Scope    string   `json:"scope,omitempty" yaml:"scope,omitempty"`
	Reason   string   `json:"reason" yaml:"reason"`
}

func (w Warning) String() string {
	if w.Scope == "" {
		return fmt.Sprintf("[%s] %s", w.Provider, w.Reason)
	}
	return fmt.Sprintf("[%s/%s] %s", w.Provider, w.Scope, w.Reason)
}

// WarningFromError converts a collection error into a warning.
func WarningFromError(provider Provider, scope string, err error) Warning {
	return Warning{Provider: provider, Scope: scope, Reason: err.Error()}
}

// Result aggregates what one source produced across its scopes.
// Rows is incremented once per emitted row.
type Result struct {
	Source   string    `json:"source" yaml:"source"`
	Provider Provider  `json:"provider" yaml:"provider"`
	Scopes   int       `json:"scopes" yaml:"scopes"`
	Failed   int       `json:"failedScopes" yaml:"failedScopes"`
	Rows     int       `json:"rows" yaml:"rows"`
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddWarning appends a warning to the result.
func (r *Result) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// Batch is the output of collecting a single scope.
type Batch struct {
	Rows     []Row
	Warnings []Warning
}
