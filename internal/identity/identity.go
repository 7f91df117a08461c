// Package identity derives canonical listing identifiers from heterogeneous upstream records
// and recognizes the same property exposed under different id shapes.
package identity

import (
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
)

// Record is anything exposing id-like aliases.
type Record interface {
	IdentityAliases() models.Aliases
}

var placeholders = map[string]struct{}{
	"null":      {},
	"undefined": {},
	"nan":       {},
}

// Resolve returns canonical identifier of record, or false when record exposes none.
// Candidates are tried in order: opaque ids, reference, prefix+number, branch+reference,
// external reference, slug.
func Resolve(rec Record) (string, bool) {
	cands := candidates(rec.IdentityAliases())
	if len(cands) == 0 {
		return "", false
	}
	return cands[0], true
}

// Matches reports whether any representation of record's identity equals id.
// Comparison ignores case and surrounding whitespace.
func Matches(rec Record, id string) bool {
	target := Normalize(id)
	if target == "" {
		return false
	}

	for _, candidate := range candidates(rec.IdentityAliases()) {
		if Normalize(candidate) == target {
			return true
		}
	}
	return false
}

// Keys returns every normalized representation of record's identity.
func Keys(rec Record) []string {
	cands := candidates(rec.IdentityAliases())
	keys := make([]string, 0, len(cands))
	for _, candidate := range cands {
		keys = append(keys, Normalize(candidate))
	}
	return keys
}

// Normalize returns comparison form of identifier.
func Normalize(id string) string {
	return strings.ToLower(clean(id))
}

// Seen tracks identities already accepted in a single aggregation pass.
type Seen struct {
	keys map[string]struct{}
}

// NewSeen returns empty Seen.
func NewSeen() *Seen {
	return &Seen{keys: make(map[string]struct{})}
}

// Add records identity of rec. It returns false if any representation of it was seen before,
// in which case nothing is recorded.
func (s *Seen) Add(rec Record) bool {
	keys := Keys(rec)
	if len(keys) == 0 {
		return false
	}

	for _, key := range keys {
		if _, ok := s.keys[key]; ok {
			return false
		}
	}

	for _, key := range keys {
		s.keys[key] = struct{}{}
	}
	return true
}

func candidates(a models.Aliases) []string {
	raw := []string{
		a.ListingID,
		a.SourceID,
		a.PropertyID,
		a.Reference,
		composite("", a.ReferencePrefix, a.ReferenceNumber),
		composite("-", a.BranchCode, a.Reference),
		a.ExternalReference,
		a.Slug,
	}

	result := make([]string, 0, len(raw))
	for _, value := range raw {
		if value = clean(value); value != "" {
			result = append(result, value)
		}
	}
	return result
}

func composite(sep string, first, second string) string {
	first, second = clean(first), clean(second)
	if first == "" || second == "" {
		return ""
	}
	return first + sep + second
}

func clean(value string) string {
	value = strings.TrimSpace(value)
	if _, ok := placeholders[strings.ToLower(value)]; ok {
		return ""
	}
	return value
}
