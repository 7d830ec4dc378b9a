package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBrokerBroadcastReachesTargetSubscribers(t *testing.T) {
	broker := NewBroker()

	facultyCh, cancelFaculty := broker.Subscribe(TargetKey("faculty", 1))
	defer cancelFaculty()
	deanCh, cancelDean := broker.Subscribe(TargetKey("dean", 1))
	defer cancelDean()

	broker.Broadcast(Event{TargetType: "faculty", TargetID: 1, AverageScore: 75, CompletedEvaluations: 3})

	select {
	case event := <-facultyCh:
		require.Equal(t, 75.0, event.AverageScore)
		require.Equal(t, int64(3), event.CompletedEvaluations)
	case <-time.After(time.Second):
		t.Fatal("expected faculty subscriber to receive event")
	}

	select {
	case <-deanCh:
		t.Fatal("dean subscriber must not receive faculty events")
	default:
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	broker := NewBroker()

	ch, cancel := broker.Subscribe(TargetKey("faculty", 2))
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Cancelling twice must not panic.
	cancel()

	// Broadcasting after cancel is a no-op.
	broker.Broadcast(Event{TargetType: "faculty", TargetID: 2})
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	broker := NewBroker()

	_, cancel := broker.Subscribe(TargetKey("dean", 5))
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*4; i++ {
			broker.Broadcast(Event{TargetType: "dean", TargetID: 5})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
}
