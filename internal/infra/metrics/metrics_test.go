package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/metrics"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCounters(reg)

	c.IncEvent(event.PaymentSettled)
	c.IncEvent(event.PaymentSettled)
	c.IncEvent(event.PaymentFailed)
	c.IncConflict()
	c.IncRejected("validation")

	require.Equal(t, 2.0, testutil.ToFloat64(c.Events.WithLabelValues(string(event.PaymentSettled))))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Events.WithLabelValues(string(event.PaymentFailed))))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Conflicts))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Rejected.WithLabelValues("validation")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 4, n)
}
