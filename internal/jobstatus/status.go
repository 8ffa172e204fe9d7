// Package jobstatus defines the canonical job status vocabulary and the
// single normalization boundary for backend status strings. No other
// package may pattern-match raw backend statuses.
package jobstatus

// Status is the canonical, ordered job state. Values are monotonic within
// a job: the engine never issues a backward transition.
type Status int

const (
	// StatusPending is the pre-acceptance bucket (a quoted job the
	// technician has not accepted yet). It is also the safe default for
	// unrecognized backend strings.
	StatusPending Status = iota
	StatusAccepted
	StatusScheduled
	StatusEnRoute
	StatusArrived
	StatusChecking
	// StatusPriceReview is a conditional branch taken only when the offer
	// carries an estimated cost but no final cost when Checking completes.
	StatusPriceReview
	StatusRepairing
	StatusRepaired
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusPending:     "pending",
	StatusAccepted:    "accepted",
	StatusScheduled:   "scheduled",
	StatusEnRoute:     "en_route",
	StatusArrived:     "arrived",
	StatusChecking:    "checking",
	StatusPriceReview: "price_review",
	StatusRepairing:   "repairing",
	StatusRepaired:    "repaired",
	StatusCompleted:   "completed",
}

// String returns the wire name of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "pending"
}

// IsFieldExecution reports whether the status belongs to on-site execution
// (Scheduled through Repaired).
func (s Status) IsFieldExecution() bool {
	return s >= StatusScheduled && s <= StatusRepaired
}

// IsTerminal reports whether no further transition can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// InAcceptedBucket reports whether the job belongs on the technician's
// "my jobs" list: accepted, any field-execution status, or completed.
func (s Status) InAcceptedBucket() bool {
	return s >= StatusAccepted && s <= StatusCompleted
}

// Successors returns the legal immediate successors of s. The Checking
// branch depends on the offer: priceReview selects Checking→PriceReview
// over Checking→Repairing.
func (s Status) Successors(priceReview bool) []Status {
	switch s {
	case StatusAccepted:
		return []Status{StatusScheduled}
	case StatusScheduled:
		return []Status{StatusEnRoute}
	case StatusEnRoute:
		return []Status{StatusArrived}
	case StatusArrived:
		return []Status{StatusChecking}
	case StatusChecking:
		if priceReview {
			return []Status{StatusPriceReview}
		}
		return []Status{StatusRepairing}
	case StatusPriceReview:
		return []Status{StatusRepairing}
	case StatusRepairing:
		return []Status{StatusRepaired}
	case StatusRepaired:
		return []Status{StatusCompleted}
	default:
		return nil
	}
}

// CanTransition reports whether target is a legal immediate successor of s.
func (s Status) CanTransition(target Status, priceReview bool) bool {
	for _, next := range s.Successors(priceReview) {
		if next == target {
			return true
		}
	}
	return false
}
