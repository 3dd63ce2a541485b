package payment

import "slices"

type Status string

const (
	StatusRegistered Status = "REGISTRADO"
	StatusPaid       Status = "PAGADO"
	StatusFailed     Status = "FALLIDO"
)

// Paid keeps every outgoing edge, including Paid -> Registered used by revert.
var statusTransitions = map[Status][]Status{
	StatusRegistered: {StatusPaid, StatusFailed},
	StatusPaid:       {StatusPaid, StatusFailed, StatusRegistered},
	StatusFailed:     {},
}

func ParseStatus(description string) (Status, error) {
	s := Status(description)
	if _, ok := statusTransitions[s]; !ok {
		return "", rejectf("unknown payment status %q", description)
	}
	return s, nil
}

func (s Status) Description() string {
	return string(s)
}

func (s Status) IsTransitionValid(to Status) bool {
	return slices.Contains(statusTransitions[s], to)
}

// IsUpdateValid reports whether amount and method may change in this status.
func (s Status) IsUpdateValid() bool {
	return s == StatusRegistered
}

func (s Status) CheckTransitionValid(to Status) error {
	if s.IsTransitionValid(to) {
		return nil
	}
	return &InvalidTransitionError{From: s, To: to}
}
