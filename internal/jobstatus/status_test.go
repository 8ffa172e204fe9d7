package jobstatus

import "testing"

func TestNormalizeTable(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"quoted", StatusPending},
		{"QUOTE_ACCEPTED", StatusAccepted},
		{"quote-accepted", StatusAccepted},
		{"Accepted", StatusAccepted},
		{"scheduled", StatusScheduled},
		{"EN ROUTE", StatusEnRoute},
		{"on_the_way", StatusEnRoute},
		{"arrived", StatusArrived},
		{"Checking", StatusChecking},
		{"PRICE_REVIEW", StatusPriceReview},
		{"in_progress", StatusRepairing},
		{"Repaired", StatusRepaired},
		{"completed", StatusCompleted},
		{"PAID", StatusCompleted},
	}

	for _, tc := range tests {
		if got := Normalize(tc.raw, nil); got != tc.want {
			t.Errorf("Normalize(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeUnknownDefaultsToPending(t *testing.T) {
	var warned string
	got := Normalize("frobnicating", func(raw string) { warned = raw })

	if got != StatusPending {
		t.Errorf("unknown status should default to pending, got %v", got)
	}
	if warned != "frobnicating" {
		t.Errorf("warn hook not invoked with raw input, got %q", warned)
	}
}

func TestNormalizeKnownStatusDoesNotWarn(t *testing.T) {
	warned := false
	Normalize("accepted", func(string) { warned = true })
	if warned {
		t.Error("known status must not trigger the warn hook")
	}
}

func TestSuccessorsAreMonotonic(t *testing.T) {
	for s := StatusPending; s <= StatusCompleted; s++ {
		for _, branch := range []bool{false, true} {
			for _, next := range s.Successors(branch) {
				if next <= s {
					t.Errorf("successor %v of %v is not a forward transition", next, s)
				}
			}
		}
	}
}

func TestCheckingBranch(t *testing.T) {
	if !StatusChecking.CanTransition(StatusPriceReview, true) {
		t.Error("Checking must allow PriceReview when the branch condition holds")
	}
	if StatusChecking.CanTransition(StatusPriceReview, false) {
		t.Error("Checking must not allow PriceReview once a final cost is locked")
	}
	if !StatusChecking.CanTransition(StatusRepairing, false) {
		t.Error("Checking must allow Repairing when no price review is needed")
	}
	if StatusChecking.CanTransition(StatusRepairing, true) {
		t.Error("Checking must not skip a required price review")
	}
	if !StatusPriceReview.CanTransition(StatusRepairing, false) {
		t.Error("PriceReview must allow Repairing")
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	tests := []struct {
		from, to Status
	}{
		{StatusAccepted, StatusEnRoute},
		{StatusScheduled, StatusArrived},
		{StatusArrived, StatusRepairing},
		{StatusRepairing, StatusCompleted},
		{StatusCompleted, StatusAccepted},
		{StatusArrived, StatusEnRoute},
	}

	for _, tc := range tests {
		if tc.from.CanTransition(tc.to, false) || tc.from.CanTransition(tc.to, true) {
			t.Errorf("%v -> %v should be rejected", tc.from, tc.to)
		}
	}
}

func TestBuckets(t *testing.T) {
	if StatusPending.InAcceptedBucket() {
		t.Error("pending belongs to the available bucket")
	}
	for s := StatusAccepted; s <= StatusCompleted; s++ {
		if !s.InAcceptedBucket() {
			t.Errorf("%v should be in the accepted bucket", s)
		}
	}
	if !StatusCompleted.IsTerminal() {
		t.Error("completed is terminal")
	}
	if StatusRepaired.IsTerminal() {
		t.Error("repaired is not terminal")
	}
}
