// Package dialect centralizes PHP language-version gating. Every
// version-conditional decision the mapper makes goes through the static
// table here, so adding a dialect is a table update, not a mapper rewrite.
package dialect

import "fmt"

// Version identifies a PHP language-version profile, one tag per supported
// minor release. The zero value is not a valid dialect.
type Version int

// Supported dialects, oldest first. Ordering is load-bearing: construct
// gating compares versions numerically.
const (
	PHP74 Version = iota + 1
	PHP80
	PHP81
	PHP82
	PHP83
	PHP84
)

// Latest is the newest dialect this build knows about. Unknown or future
// version strings fall back to it.
const Latest = PHP84

var versionNames = map[Version]string{
	PHP74: "7.4",
	PHP80: "8.0",
	PHP81: "8.1",
	PHP82: "8.2",
	PHP83: "8.3",
	PHP84: "8.4",
}

func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}

	return fmt.Sprintf("Version(%d)", int(v))
}

// IsValid reports whether v is a dialect this build knows about.
func (v Version) IsValid() bool {
	_, ok := versionNames[v]

	return ok
}

// Parse resolves a version string like "8.1" to a dialect tag. Unknown
// strings return (Latest, false) so the caller can record the downgrade as
// a diagnostic; the empty string means "no preference" and returns
// (Latest, true).
func Parse(s string) (Version, bool) {
	if s == "" {
		return Latest, true
	}

	for v, name := range versionNames {
		if name == s {
			return v, true
		}
	}

	return Latest, false
}

// Construct identifies a grammar production whose validity or meaning
// changed across PHP versions.
type Construct string

// Version-gated constructs.
const (
	ConstructTypedProperty        Construct = "typed_property"
	ConstructArrowFunction        Construct = "arrow_function"
	ConstructPromotedProperty     Construct = "promoted_property"
	ConstructMatchExpression      Construct = "match_expression"
	ConstructNullsafeAccess       Construct = "nullsafe_access"
	ConstructNamedArgument        Construct = "named_argument"
	ConstructAttribute            Construct = "attribute"
	ConstructUnionType            Construct = "union_type"
	ConstructReadonlyProperty     Construct = "readonly_property"
	ConstructEnum                 Construct = "enum"
	ConstructFirstClassCallable   Construct = "first_class_callable"
	ConstructIntersectionType     Construct = "intersection_type"
	ConstructNeverType            Construct = "never_type"
	ConstructReadonlyClass        Construct = "readonly_class"
	ConstructDNFType              Construct = "dnf_type"
	ConstructTraitConstant        Construct = "trait_constant"
	ConstructTypedClassConstant   Construct = "typed_class_constant"
	ConstructPropertyHook         Construct = "property_hook"
	ConstructAsymmetricVisibility Construct = "asymmetric_visibility"
)

// minVersion is the static gating table: the first dialect in which each
// construct is legal. Constructs absent from the table are treated as
// always legal, so older grammar productions never need entries.
var minVersion = map[Construct]Version{
	ConstructTypedProperty:        PHP74,
	ConstructArrowFunction:        PHP74,
	ConstructPromotedProperty:     PHP80,
	ConstructMatchExpression:      PHP80,
	ConstructNullsafeAccess:       PHP80,
	ConstructNamedArgument:        PHP80,
	ConstructAttribute:            PHP80,
	ConstructUnionType:            PHP80,
	ConstructReadonlyProperty:     PHP81,
	ConstructEnum:                 PHP81,
	ConstructFirstClassCallable:   PHP81,
	ConstructIntersectionType:     PHP81,
	ConstructNeverType:            PHP81,
	ConstructReadonlyClass:        PHP82,
	ConstructDNFType:              PHP82,
	ConstructTraitConstant:        PHP82,
	ConstructTypedClassConstant:   PHP83,
	ConstructPropertyHook:         PHP84,
	ConstructAsymmetricVisibility: PHP84,
}

// Interpretation names the canonical reading of an ambiguous construct.
type Interpretation int

// Canonical interpretations returned by Resolve.
const (
	// CanonicalBlock folds the alternative colon-terminated statement
	// bodies (if/endif, foreach/endforeach, ...) into ordinary blocks so
	// both spellings produce structurally identical subtrees.
	CanonicalBlock Interpretation = iota
	// CanonicalExpression folds list(...) destructuring into the bracket
	// array-pattern form.
	CanonicalExpression
	// CanonicalDeclaration resolves an ambiguous declaration-vs-expression
	// form in favor of the declaration reading.
	CanonicalDeclaration
)

// ambiguity is the static resolution table for constructs with two
// dialect-valid readings. The precedence rule is explicit: the canonical
// form is the one introduced by the newest construct the dialect enables,
// recorded here rather than derived from traversal order.
var ambiguity = map[Construct]Interpretation{
	"alternative_block":   CanonicalBlock,
	"list_destructuring":  CanonicalExpression,
	"const_visibility":    CanonicalDeclaration,
	"trailing_comma_call": CanonicalExpression,
}

// Resolver answers version-gating and ambiguity questions for one dialect.
// It is immutable after construction and safe to share across concurrent
// passes without synchronization.
type Resolver struct {
	version Version
}

// NewResolver returns a resolver for the given dialect. Invalid versions
// are clamped to Latest, matching the Parse fallback policy.
func NewResolver(v Version) *Resolver {
	if !v.IsValid() {
		v = Latest
	}

	return &Resolver{version: v}
}

// Version returns the dialect this resolver answers for.
func (r *Resolver) Version() Version {
	return r.version
}

// Enabled reports whether the construct is legal in the active dialect.
// Decisions are monotone: once a construct is enabled at version D it stays
// enabled for every dialect >= D.
func (r *Resolver) Enabled(c Construct) bool {
	minv, ok := minVersion[c]
	if !ok {
		return true
	}

	return r.version >= minv
}

// MinVersion returns the first dialect in which the construct is legal and
// whether the construct is version-gated at all.
func MinVersion(c Construct) (Version, bool) {
	v, ok := minVersion[c]

	return v, ok
}

// Resolve returns the canonical interpretation for an ambiguous construct.
// Unlisted constructs canonicalize to CanonicalBlock, the conservative
// structural reading.
func (r *Resolver) Resolve(c Construct) Interpretation {
	if choice, ok := ambiguity[c]; ok {
		return choice
	}

	return CanonicalBlock
}
