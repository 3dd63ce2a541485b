package payment

import (
	"github.com/shopspring/decimal"
)

// Payment is the aggregate for a single payment. Fields are only changed
// through the lifecycle methods so status and amount rules always hold.
type Payment struct {
	id     string
	amount decimal.Decimal
	status Status
	method MethodPolicy
}

// Record is the persisted and displayed shape of a payment.
type Record struct {
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"payment_method"`
}

// New registers a payment after validating amount against the method policy.
func New(id string, amount decimal.Decimal, method MethodKind) (*Payment, error) {
	if id == "" {
		return nil, rejectf("payment id is required")
	}
	policy, err := PolicyFor(method)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(amount); err != nil {
		return nil, err
	}

	return &Payment{
		id:     id,
		amount: amount,
		status: StatusRegistered,
		method: policy,
	}, nil
}

// Restore rebuilds a payment from storage. Amount ceilings are not
// re-checked: persisted state is authoritative.
func Restore(id string, amount decimal.Decimal, method MethodKind, status Status) (*Payment, error) {
	policy, err := PolicyFor(method)
	if err != nil {
		return nil, err
	}
	if _, ok := statusTransitions[status]; !ok {
		return nil, rejectf("unknown payment status %q", string(status))
	}

	return &Payment{
		id:     id,
		amount: amount,
		status: status,
		method: policy,
	}, nil
}

func FromRecord(id string, r Record) (*Payment, error) {
	method, err := ParseMethod(r.PaymentMethod)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	return Restore(id, decimal.NewFromFloat(r.Amount), method, status)
}

func (p *Payment) ID() string              { return p.id }
func (p *Payment) Amount() decimal.Decimal { return p.amount }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) Method() MethodKind      { return p.method.Kind() }
func (p *Payment) MethodName() string      { return p.method.Name() }

// Pay settles the payment. Cross-payment rules must have been approved by
// a RuleEngine against the snapshot this payment was read from.
func (p *Payment) Pay() error {
	if err := p.method.Validate(p.amount); err != nil {
		return err
	}
	if err := p.status.CheckTransitionValid(StatusPaid); err != nil {
		return err
	}
	p.status = StatusPaid
	return nil
}

func (p *Payment) Fail() error {
	if err := p.status.CheckTransitionValid(StatusFailed); err != nil {
		return err
	}
	p.status = StatusFailed
	return nil
}

func (p *Payment) Revert() error {
	if err := p.status.CheckTransitionValid(StatusRegistered); err != nil {
		return err
	}
	p.status = StatusRegistered
	return nil
}

// Update replaces amount and method together, or leaves both untouched.
func (p *Payment) Update(amount decimal.Decimal, method MethodKind) error {
	if !p.status.IsUpdateValid() {
		return &InvalidTransitionError{From: p.status}
	}
	policy, err := PolicyFor(method)
	if err != nil {
		return err
	}
	if err := policy.Validate(amount); err != nil {
		return err
	}

	p.amount = amount
	p.method = policy
	return nil
}

func (p *Payment) Serialize() Record {
	return Record{
		Amount:        p.amount.InexactFloat64(),
		Status:        p.status.Description(),
		PaymentMethod: p.method.Name(),
	}
}

func (p *Payment) Clone() *Payment {
	c := *p
	return &c
}
