package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

type MethodKind string

const (
	MethodCreditCard MethodKind = "CREDIT_CARD"
	MethodPayPal     MethodKind = "PAYPAL"
)

var (
	CreditCardLimit = decimal.NewFromInt(10000)
	PayPalLimit     = decimal.NewFromInt(5000)
)

// MethodPolicy validates amounts for one payment method. Name is a display
// label; compare methods by Kind.
type MethodPolicy interface {
	Kind() MethodKind
	Name() string
	Validate(amount decimal.Decimal) error
}

type creditCardPolicy struct{}

func (creditCardPolicy) Kind() MethodKind { return MethodCreditCard }
func (creditCardPolicy) Name() string     { return "Tarjeta de Crédito" }

func (p creditCardPolicy) Validate(amount decimal.Decimal) error {
	if err := validateNonNegative(amount); err != nil {
		return err
	}
	if amount.GreaterThanOrEqual(CreditCardLimit) {
		return rejectf("credit card payments must be below $10,000, got %s", amount.String())
	}
	return nil
}

type payPalPolicy struct{}

func (payPalPolicy) Kind() MethodKind { return MethodPayPal }
func (payPalPolicy) Name() string     { return "PayPal" }

func (p payPalPolicy) Validate(amount decimal.Decimal) error {
	if err := validateNonNegative(amount); err != nil {
		return err
	}
	if amount.GreaterThanOrEqual(PayPalLimit) {
		return rejectf("PayPal payments must be below $5,000, got %s", amount.String())
	}
	return nil
}

func validateNonNegative(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return rejectf("amount cannot be negative, got %s", amount.String())
	}
	return nil
}

var policies = map[MethodKind]MethodPolicy{
	MethodCreditCard: creditCardPolicy{},
	MethodPayPal:     payPalPolicy{},
}

var methodAliases = map[string]MethodKind{
	"tarjeta de crédito": MethodCreditCard,
	"tarjeta de credito": MethodCreditCard,
	"credit card":        MethodCreditCard,
	"credit_card":        MethodCreditCard,
	"paypal":             MethodPayPal,
}

func PolicyFor(kind MethodKind) (MethodPolicy, error) {
	p, ok := policies[kind]
	if !ok {
		return nil, rejectf("unknown payment method %q", string(kind))
	}
	return p, nil
}

// ParseMethod resolves a client or persisted method name to its kind.
// Labels, accent-free labels and kind codes are accepted, case-insensitively.
func ParseMethod(name string) (MethodKind, error) {
	kind, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", rejectf("unknown payment method %q", name)
	}
	return kind, nil
}

func (k MethodKind) String() string {
	if p, ok := policies[k]; ok {
		return p.Name()
	}
	return string(k)
}
