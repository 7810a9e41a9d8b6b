package core

import "fmt"

// DiagnosticKind names a non-fatal condition raised during analysis or adaptation.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagSkippedFile       DiagnosticKind = "skipped-file"
	DiagTruncation        DiagnosticKind = "truncation"
	DiagUnresolvedPattern DiagnosticKind = "unresolved-pattern"
	DiagSkippedRule       DiagnosticKind = "skipped-rule"
	DiagDroppedRule       DiagnosticKind = "dropped-rule"
)

// Diagnostic records a condition that degraded a result without failing the call.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`
	Stage    string         `json:"stage"`
	Subject  string         `json:"subject,omitempty"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Stage, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s: %s", d.Kind, d.Stage, d.Subject, d.Message)
}

// CountByKind tallies diagnostics per kind.
func CountByKind(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}

// TruncationWarning records one shortened artifact.
type TruncationWarning struct {
	Path           string `json:"path"`
	OriginalLength int    `json:"original_length"`
	FinalLength    int    `json:"final_length"`
	Limit          int    `json:"limit"`
	Boundary       string `json:"boundary"`
}
