package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Additional-Code/creditdesk/internal/entity"
)

var paymentLabels = map[entity.PaymentMethod]string{
	entity.PaymentCash:    "Cash",
	entity.PaymentVisa:    "Visa",
	entity.PaymentBenefit: "Benefit",
	entity.PaymentFloos:   "Floos",
	entity.PaymentCredit:  "Credit",
}

var upper = cases.Upper(language.Und)

// PaymentLabel maps a stored code or a display label onto the display
// label. Values outside the enumeration are echoed upper-cased.
func PaymentLabel(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if label, ok := paymentLabels[entity.PaymentMethod(strings.ToLower(v))]; ok {
		return label
	}
	return upper.String(v)
}

// PaymentCode maps a display label back to the stored code. ok is false for
// values outside the enumeration.
func PaymentCode(label string) (entity.PaymentMethod, bool) {
	v := strings.ToLower(strings.TrimSpace(label))
	for code, l := range paymentLabels {
		if strings.ToLower(l) == v {
			return code, true
		}
	}
	return "", false
}
