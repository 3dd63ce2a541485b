package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	paymentApplication "github.com/MatLock/UdeSa-Ing-Examen/internal/application/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

type captureLogger struct {
	noopLogger
	msgs   []string
	fields []map[string]any
}

func (c *captureLogger) Info(msg string, fields map[string]any) {
	c.msgs = append(c.msgs, msg)
	c.fields = append(c.fields, fields)
}

func TestAuditHandler_LogsPayload(t *testing.T) {
	logger := &captureLogger{}
	h := &paymentApplication.AuditHandler{Logger: logger}

	err := h.Handle(context.Background(), event.Event{
		Type: event.PaymentFailed,
		Payload: event.PaymentChangedPayload{
			PaymentID: "1",
			Status:    "FALLIDO",
			Reason:    "limit",
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"payment event"}, logger.msgs)
	require.Equal(t, "limit", logger.fields[0]["reason"])
	require.Equal(t, event.PaymentFailed, logger.fields[0]["type"])
}

func TestAuditHandler_RejectsUnknownPayload(t *testing.T) {
	h := &paymentApplication.AuditHandler{Logger: &captureLogger{}}

	err := h.Handle(context.Background(), event.Event{Type: event.PaymentSettled, Payload: "nope"})
	require.Error(t, err)
}
