package source

import (
	"regexp"
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/identity"
	"github.com/samber/lo"
)

var digits = regexp.MustCompile(`\d+`)

// NumericTokens returns digit runs found in id, with leading zeros trimmed variants added.
func NumericTokens(id string) []string {
	var tokens []string
	for _, token := range digits.FindAllString(id, -1) {
		tokens = append(tokens, token)
		if trimmed := strings.TrimLeft(token, "0"); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return lo.Uniq(tokens)
}

// Param is single search query parameter.
type Param struct {
	Name  string
	Value string
}

// CandidateParams builds search queries that could find listing known by id.
// idFields are queried with id itself, numericFields with every numeric token of id.
func CandidateParams(id string, idFields, numericFields []string) []Param {
	id = strings.TrimSpace(id)
	if identity.Normalize(id) == "" {
		return nil
	}

	var params []Param
	for _, field := range idFields {
		params = append(params, Param{Name: field, Value: id})
	}
	for _, token := range NumericTokens(id) {
		if token == id {
			continue
		}
		for _, field := range numericFields {
			params = append(params, Param{Name: field, Value: token})
		}
	}
	return lo.Uniq(params)
}
