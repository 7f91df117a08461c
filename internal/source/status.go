package source

import (
	"strings"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
)

var statusAliases = map[string]models.Status{
	"available":                models.StatusAvailable,
	"active":                   models.StatusAvailable,
	"for_sale":                 models.StatusAvailable,
	"to_let":                   models.StatusAvailable,
	"on_market":                models.StatusAvailable,
	"published":                models.StatusAvailable,
	"under_offer":              models.StatusUnderOffer,
	"offer_accepted":           models.StatusUnderOffer,
	"sstc":                     models.StatusUnderOffer,
	"sold_stc":                 models.StatusUnderOffer,
	"sold_subject_to_contract": models.StatusUnderOffer,
	"let_agreed":               models.StatusLetAgreed,
	"let_stc":                  models.StatusLetAgreed,
	"reserved":                 models.StatusLetAgreed,
	"let":                      models.StatusLet,
	"let_by":                   models.StatusLet,
	"tenanted":                 models.StatusLet,
	"sold":                     models.StatusSold,
	"completed":                models.StatusSold,
	"withdrawn":                models.StatusWithdrawn,
	"archived":                 models.StatusWithdrawn,
	"off_market":               models.StatusWithdrawn,
	"inactive":                 models.StatusWithdrawn,
	"expired":                  models.StatusWithdrawn,
}

// ParseStatus maps provider status onto shared vocabulary.
func ParseStatus(s string) (models.Status, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(key)
	status, ok := statusAliases[key]
	return status, ok
}
