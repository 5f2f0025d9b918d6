//go:build integration

package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	LicenseID string `json:"license_id"`
	Result    string `json:"result"`
}

func TestPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	conn, err := Connect(amqpURI(ctx, t), 3, time.Second)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	const exchange = "licensing-publish"
	ch, err := SetupChannel(conn, exchange, []QueueConfig{
		{QueueName: "licensing.issued-only", RoutingKey: RoutingLicenseIssued},
		{QueueName: "licensing.all", RoutingKey: "license.#"},
	})
	require.NoError(t, err)

	publisher := NewPublisher(ch, exchange)
	defer func() { _ = publisher.Close() }()

	consumeCh, err := conn.Channel()
	require.NoError(t, err)
	defer func() { _ = consumeCh.Close() }()

	t.Run("событие выдачи попадает в обе очереди", func(t *testing.T) {
		msg := testEvent{LicenseID: "lic-1", Result: "issued"}
		require.NoError(t, publisher.Publish(ctx, RoutingLicenseIssued, msg))

		for _, queue := range []string{"licensing.issued-only", "licensing.all"} {
			got := receive(t, consumeCh, queue)
			assert.Equal(t, msg, got)
		}
	})

	t.Run("событие проверки попадает только в общую очередь", func(t *testing.T) {
		msg := testEvent{LicenseID: "lic-2", Result: "valid"}
		require.NoError(t, publisher.Publish(ctx, RoutingLicenseValidated, msg))

		got := receive(t, consumeCh, "licensing.all")
		assert.Equal(t, msg, got)

		q, err := consumeCh.QueueInspect("licensing.issued-only")
		require.NoError(t, err)
		assert.Zero(t, q.Messages)
	})

	t.Run("ошибка сериализации", func(t *testing.T) {
		err := publisher.Publish(ctx, RoutingLicenseIssued, make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})

	t.Run("отмененный контекст", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := publisher.Publish(cctx, RoutingLicenseIssued, testEvent{})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func receive(t *testing.T, ch *amqp.Channel, queue string) testEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		d, ok, err := ch.Get(queue, true)
		require.NoError(t, err)
		if ok {
			assert.Equal(t, "application/json", d.ContentType)
			var got testEvent
			require.NoError(t, json.Unmarshal(d.Body, &got))
			return got
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for message in %s", queue)
	return testEvent{}
}
