package jobstatus

import "strings"

// WarnFunc receives backend status strings that did not match the canonical
// table. Wired to the structured logger by the composition root.
type WarnFunc func(raw string)

// normalizeTable maps folded backend strings (lowercased, with underscores,
// hyphens and whitespace stripped) to canonical statuses. The backend emits
// several spellings per state across its endpoints.
var normalizeTable = map[string]Status{
	"quoted":        StatusPending,
	"pending":       StatusPending,
	"available":     StatusPending,
	"new":           StatusPending,
	"accepted":      StatusAccepted,
	"quoteaccepted": StatusAccepted,
	"scheduled":     StatusScheduled,
	"appointmentscheduled": StatusScheduled,
	"enroute":       StatusEnRoute,
	"ontheway":      StatusEnRoute,
	"arrived":       StatusArrived,
	"checking":      StatusChecking,
	"inspecting":    StatusChecking,
	"pricereview":   StatusPriceReview,
	"quotereview":   StatusPriceReview,
	"awaitingprice": StatusPriceReview,
	"repairing":     StatusRepairing,
	"inprogress":    StatusRepairing,
	"repaired":      StatusRepaired,
	"done":          StatusRepaired,
	"completed":     StatusCompleted,
	"paid":          StatusCompleted,
}

// Normalize maps a free-form backend status string to a canonical status.
// Unrecognized input reports through warn and defaults to StatusPending;
// an unknown backend string must never crash or block a job list.
func Normalize(raw string, warn WarnFunc) Status {
	folded := fold(raw)
	if status, ok := normalizeTable[folded]; ok {
		return status
	}
	if warn != nil {
		warn(raw)
	}
	return StatusPending
}

func fold(raw string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "", "\t", "")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
}
