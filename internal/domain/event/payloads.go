package event

// PaymentChangedPayload carries the payment state after the change. Reason
// is set when a settlement attempt was rejected.
type PaymentChangedPayload struct {
	PaymentID     string  `json:"payment_id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
	Reason        string  `json:"reason,omitempty"`
}
