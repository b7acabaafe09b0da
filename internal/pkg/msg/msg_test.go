package msg

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
)

func TestSubscribe(t *testing.T) {
	pidPub, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub1, err := uuid.NewUUID()
	assert.NilError(t, err)

	pidSub2, err := uuid.NewUUID()
	assert.NilError(t, err)

	pubsub := NewPublisher(pidPub)
	ch1, err := pubsub.Subscribe(pidSub1, Result)
	assert.NilError(t, err)
	ch2, err := pubsub.Subscribe(pidSub2, Result)
	assert.NilError(t, err)

	randValue := rand.Float64()
	pubsub.Publish(Result, randValue)

	for _, ch := range []<-chan Msg{ch1, ch2} {
		incoming := <-ch
		assert.Equal(t, incoming.Payload(), randValue, "subscriber did not receive the published value")
		assert.Equal(t, incoming.PID(), pidPub)
		assert.Equal(t, incoming.Topic(), Result)
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	status, err := pubsub.Subscribe(uuid.New(), Status)
	assert.NilError(t, err)

	pubsub.Publish(Result, "report")
	select {
	case m := <-status:
		t.Fatalf("status subscriber received %v", m.Payload())
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	pid := uuid.New()
	pubsub := NewPublisher(uuid.New())
	ch, err := pubsub.Subscribe(pid, Result)
	assert.NilError(t, err)

	pubsub.Unsubscribe(pid)
	_, open := <-ch
	assert.Assert(t, !open)

	pubsub.Publish(Result, 1.0)
}

func TestPublishDropsWhenFull(t *testing.T) {
	pubsub := NewPublisher(uuid.New())
	ch, err := pubsub.Subscribe(uuid.New(), Result)
	assert.NilError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		pubsub.Publish(Result, i)
	}
	assert.Equal(t, len(ch), subscriberBuffer)
	assert.Equal(t, (<-ch).Payload(), 0)
}
