package payment_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
)

func restore(t *testing.T, id string, amount int64, method payment.MethodKind, status payment.Status) *payment.Payment {
	t.Helper()
	p, err := payment.Restore(id, decimal.NewFromInt(amount), method, status)
	require.NoError(t, err)
	return p
}

func TestRuleEngine_CreditCardSingleRegistered(t *testing.T) {
	engine := payment.NewRuleEngine()

	a := restore(t, "a", 100, payment.MethodCreditCard, payment.StatusRegistered)
	b := restore(t, "b", 200, payment.MethodCreditCard, payment.StatusRegistered)
	all := map[string]*payment.Payment{"a": a, "b": b}

	require.ErrorIs(t, engine.Approve("a", a, all), payment.ErrValidation)
	require.ErrorIs(t, engine.Approve("b", b, all), payment.ErrValidation)

	all["a"] = restore(t, "a", 100, payment.MethodCreditCard, payment.StatusPaid)
	require.NoError(t, engine.Approve("b", b, all))
}

func TestRuleEngine_IgnoresOtherMethodsAndStatuses(t *testing.T) {
	engine := payment.NewRuleEngine()

	target := restore(t, "a", 100, payment.MethodCreditCard, payment.StatusRegistered)
	all := map[string]*payment.Payment{
		"a": target,
		"b": restore(t, "b", 100, payment.MethodPayPal, payment.StatusRegistered),
		"c": restore(t, "c", 100, payment.MethodCreditCard, payment.StatusFailed),
		"d": restore(t, "d", 100, payment.MethodCreditCard, payment.StatusPaid),
	}

	require.NoError(t, engine.Approve("a", target, all))
}

func TestRuleEngine_PayPalAllowsManyRegistered(t *testing.T) {
	engine := payment.NewRuleEngine()

	a := restore(t, "a", 100, payment.MethodPayPal, payment.StatusRegistered)
	all := map[string]*payment.Payment{
		"a": a,
		"b": restore(t, "b", 100, payment.MethodPayPal, payment.StatusRegistered),
	}

	require.NoError(t, engine.Approve("a", a, all))
}

func TestRuleEngine_CeilingCheckedFirst(t *testing.T) {
	engine := payment.NewRuleEngine()

	target := restore(t, "a", 12000, payment.MethodCreditCard, payment.StatusRegistered)
	all := map[string]*payment.Payment{
		"a": target,
		"b": restore(t, "b", 100, payment.MethodCreditCard, payment.StatusRegistered),
	}

	err := engine.Approve("a", target, all)
	require.ErrorIs(t, err, payment.ErrValidation)
	require.Contains(t, err.Error(), "10,000")
}

func TestRuleEngine_PayPalCeiling(t *testing.T) {
	engine := payment.NewRuleEngine()

	target := restore(t, "a", 5000, payment.MethodPayPal, payment.StatusRegistered)
	err := engine.Approve("a", target, map[string]*payment.Payment{"a": target})
	require.ErrorIs(t, err, payment.ErrValidation)
}

func TestRuleEngine_DoesNotMutate(t *testing.T) {
	engine := payment.NewRuleEngine()

	a := restore(t, "a", 100, payment.MethodCreditCard, payment.StatusRegistered)
	b := restore(t, "b", 100, payment.MethodCreditCard, payment.StatusRegistered)
	all := map[string]*payment.Payment{"a": a, "b": b}

	_ = engine.Approve("a", a, all)

	require.Len(t, all, 2)
	require.Equal(t, payment.StatusRegistered, a.Status())
	require.Equal(t, payment.StatusRegistered, b.Status())
}
