package event

type Type string

const (
	PaymentRegistered Type = "PAYMENT_REGISTERED"
	PaymentSettled    Type = "PAYMENT_SETTLED"
	PaymentFailed     Type = "PAYMENT_FAILED"
	PaymentReverted   Type = "PAYMENT_REVERTED"
	PaymentUpdated    Type = "PAYMENT_UPDATED"
)

type Event struct {
	Type    Type
	Payload any
}
