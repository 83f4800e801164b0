package order

import (
	"fmt"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

// AttemptOutcome is the result of offering an order to one courier.
type AttemptOutcome int

const (
	OutcomeUnknown AttemptOutcome = iota
	Offered
	Accepted
	Refused
	TimedOut
)

func getOutcomeStrings() map[AttemptOutcome]string {
	return map[AttemptOutcome]string{
		OutcomeUnknown: "UNKNOWN",
		Offered:        "OFFERED",
		Accepted:       "ACCEPTED",
		Refused:        "REFUSED",
		TimedOut:       "TIMED_OUT",
	}
}

func (o AttemptOutcome) String() string {
	if str, ok := getOutcomeStrings()[o]; ok {
		return str
	}
	return "UNKNOWN"
}

func ParseAttemptOutcome(s string) (AttemptOutcome, error) {
	for outcome, name := range getOutcomeStrings() {
		if outcome != OutcomeUnknown && name == s {
			return outcome, nil
		}
	}
	return OutcomeUnknown, errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not a valid outcome", s))
}

// Attempt records one courier offer. ResolvedAt is nil while the offer is outstanding.
type Attempt struct {
	CourierID  kernel.UUID
	OfferedAt  time.Time
	Outcome    AttemptOutcome
	ResolvedAt *time.Time
}

// IsOutstanding reports whether the courier has neither answered nor timed out.
func (a Attempt) IsOutstanding() bool {
	return a.Outcome == Offered
}

// ExpiresAt is the moment the offer window closes.
func (a Attempt) ExpiresAt(window time.Duration) time.Time {
	return a.OfferedAt.Add(window)
}
