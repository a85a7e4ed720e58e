package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetrics(t *testing.T) {
	t.Run("requests_total_counts_by_labels", func(t *testing.T) {
		counter := HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/messages", "200")
		before := testutil.ToFloat64(counter)

		counter.Inc()

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})

	t.Run("request_duration_observes_without_panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			HTTPRequestDuration.WithLabelValues("POST", "/api/v1/messages", "201").Observe(0.042)
		})
	})
}

func TestBusMetrics(t *testing.T) {
	t.Run("subscriptions_active_tracks_inc_and_dec", func(t *testing.T) {
		before := testutil.ToFloat64(BusSubscriptionsActive)

		BusSubscriptionsActive.Inc()
		assert.Equal(t, before+1, testutil.ToFloat64(BusSubscriptionsActive))

		BusSubscriptionsActive.Dec()
		assert.Equal(t, before, testutil.ToFloat64(BusSubscriptionsActive))
	})

	t.Run("messages_published_counts_per_driver", func(t *testing.T) {
		memory := BusMessagesPublished.WithLabelValues("memory")
		amqp := BusMessagesPublished.WithLabelValues("amqp")
		memoryBefore := testutil.ToFloat64(memory)
		amqpBefore := testutil.ToFloat64(amqp)

		memory.Inc()

		assert.Equal(t, memoryBefore+1, testutil.ToFloat64(memory))
		assert.Equal(t, amqpBefore, testutil.ToFloat64(amqp), "drivers are counted independently")
	})

	t.Run("delivery_counters_increment", func(t *testing.T) {
		deliveredBefore := testutil.ToFloat64(BusMessagesDelivered)
		droppedBefore := testutil.ToFloat64(BusMessagesDropped)
		failuresBefore := testutil.ToFloat64(BusDeliveryFailures)

		BusMessagesDelivered.Inc()
		BusMessagesDropped.Inc()
		BusDeliveryFailures.Inc()

		assert.Equal(t, deliveredBefore+1, testutil.ToFloat64(BusMessagesDelivered))
		assert.Equal(t, droppedBefore+1, testutil.ToFloat64(BusMessagesDropped))
		assert.Equal(t, failuresBefore+1, testutil.ToFloat64(BusDeliveryFailures))
	})
}

func TestWebSocketConnectionsActive(t *testing.T) {
	before := testutil.ToFloat64(WebSocketConnectionsActive)

	WebSocketConnectionsActive.Inc()
	WebSocketConnectionsActive.Inc()
	assert.Equal(t, before+2, testutil.ToFloat64(WebSocketConnectionsActive))

	WebSocketConnectionsActive.Dec()
	WebSocketConnectionsActive.Dec()
	assert.Equal(t, before, testutil.ToFloat64(WebSocketConnectionsActive))
}

func TestDBQueryDuration(t *testing.T) {
	assert.NotPanics(t, func() {
		DBQueryDuration.WithLabelValues("insert", "messages").Observe(0.003)
		DBQueryDuration.WithLabelValues("select", "participants").Observe(0.001)
	})
}
