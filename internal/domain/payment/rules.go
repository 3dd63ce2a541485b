package payment

// SettlementRule inspects the target payment and the full payment set it was
// read from. A non-nil error rejects the settlement attempt.
type SettlementRule func(targetID string, target *Payment, all map[string]*Payment) error

// RuleEngine decides whether a settlement attempt is admissible. Rules run
// in order per method and the first violation wins.
type RuleEngine struct {
	rules map[MethodKind][]SettlementRule
}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{
		rules: map[MethodKind][]SettlementRule{
			MethodCreditCard: {
				WithinMethodCeiling,
				NoOtherRegistered(MethodCreditCard),
			},
			MethodPayPal: {
				WithinMethodCeiling,
			},
		},
	}
}

// Approve never mutates target or all.
func (e *RuleEngine) Approve(targetID string, target *Payment, all map[string]*Payment) error {
	rules, ok := e.rules[target.Method()]
	if !ok {
		rules = []SettlementRule{WithinMethodCeiling}
	}

	for _, rule := range rules {
		if err := rule(targetID, target, all); err != nil {
			return err
		}
	}
	return nil
}

func WithinMethodCeiling(_ string, target *Payment, _ map[string]*Payment) error {
	return target.method.Validate(target.amount)
}

// NoOtherRegistered allows at most one outstanding Registered payment of
// kind across the set, not counting the target itself.
func NoOtherRegistered(kind MethodKind) SettlementRule {
	return func(targetID string, _ *Payment, all map[string]*Payment) error {
		for id, other := range all {
			if id == targetID {
				continue
			}
			if other.Method() == kind && other.Status() == StatusRegistered {
				return rejectf("another %s payment is already pending (%s)", kind.String(), id)
			}
		}
		return nil
	}
}
