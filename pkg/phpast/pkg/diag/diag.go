// Package diag collects recoverable issues encountered during one mapping
// pass. Diagnostics are attached by span, not node identity, so they survive
// even when the node that triggered them was skipped rather than built.
package diag

import (
	"fmt"

	"github.com/celerrate/celerrate/pkg/phpast/pkg/span"
)

// Severity classifies a diagnostic.
type Severity int

// Severity levels.
const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Code is a stable machine-readable identifier for a class of diagnostics.
type Code string

// Diagnostic codes emitted by the mapper.
const (
	CodeSyntaxError        Code = "syntax-error"
	CodeMissingNode        Code = "missing-node"
	CodeUnknownKind        Code = "unknown-kind"
	CodeConstructDisabled  Code = "construct-disabled"
	CodeDialectDowngraded  Code = "dialect-downgraded"
	CodeDuplicateModifier  Code = "duplicate-modifier"
	CodeUnsupportedEncoded Code = "unsupported-encoding"
)

// Diagnostic is a single recoverable-issue record.
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Code     Code      `json:"code"`
	Span     span.Span `json:"span"`
	Message  string    `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s (%s)", d.Span, d.Severity, d.Message, d.Code)
}

// Collector is an append-only diagnostic sink. Its lifetime is exactly one
// mapping invocation; it is not safe for concurrent use, matching the
// single-threaded pass model.
type Collector struct {
	records []Diagnostic
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Warnf records a Warning diagnostic at the given span.
func (c *Collector) Warnf(code Code, at span.Span, format string, args ...any) {
	c.append(Warning, code, at, format, args...)
}

// Errorf records an Error diagnostic at the given span.
func (c *Collector) Errorf(code Code, at span.Span, format string, args ...any) {
	c.append(Error, code, at, format, args...)
}

func (c *Collector) append(sev Severity, code Code, at span.Span, format string, args ...any) {
	c.records = append(c.records, Diagnostic{
		Severity: sev,
		Code:     code,
		Span:     at,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	return len(c.records)
}

// List returns the collected diagnostics in emission order. The returned
// slice is owned by the caller; the collector is done once the pass returns.
func (c *Collector) List() []Diagnostic {
	return c.records
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	for _, d := range c.records {
		if d.Severity == Error {
			return true
		}
	}

	return false
}
