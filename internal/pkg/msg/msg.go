package msg

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topic is a message category subscribers select on.
type Topic int

const (
	// Status carries progress updates.
	Status Topic = iota
	// Result carries finished scenario run reports.
	Result
)

func (t Topic) String() string {
	switch t {
	case Status:
		return "status"
	case Result:
		return "result"
	default:
		return "unknown"
	}
}

// Publisher is an interface for objects that allow subscription to their events
type Publisher interface {
	Subscribe(uuid.UUID, Topic) (<-chan Msg, error)
	Unsubscribe(uuid.UUID)
}

// Msg is a payload tagged with its sender and topic.
type Msg struct {
	sender  uuid.UUID
	topic   Topic
	payload interface{}
}

// New is the Msg factory function
func New(sender uuid.UUID, topic Topic, payload interface{}) Msg {
	return Msg{sender, topic, payload}
}

// PID returns the sender's PID
func (v Msg) PID() uuid.UUID {
	return v.sender
}

// Topic returns the message topic
func (v Msg) Topic() Topic {
	return v.topic
}

// Payload returns the message data
func (v Msg) Payload() interface{} {
	return v.payload
}

// subscriberBuffer bounds how far a subscriber may lag before messages are dropped.
const subscriberBuffer = 64

// PubSub fans published messages out to the subscribers of each topic.
type PubSub struct {
	pid  uuid.UUID
	mux  *sync.Mutex
	subs map[Topic]map[uuid.UUID]chan Msg
}

// NewPublisher returns a PubSub that stamps messages with pid.
func NewPublisher(pid uuid.UUID) *PubSub {
	return &PubSub{
		pid:  pid,
		mux:  &sync.Mutex{},
		subs: make(map[Topic]map[uuid.UUID]chan Msg),
	}
}

// Subscribe returns a channel on which the topic is broadcast to pid.
// Subscribing again with the same pid and topic returns a fresh channel.
func (p *PubSub) Subscribe(pid uuid.UUID, topic Topic) (<-chan Msg, error) {
	p.mux.Lock()
	defer p.mux.Unlock()
	if _, ok := p.subs[topic]; !ok {
		p.subs[topic] = make(map[uuid.UUID]chan Msg)
	}
	if old, ok := p.subs[topic][pid]; ok {
		close(old)
	}
	ch := make(chan Msg, subscriberBuffer)
	p.subs[topic][pid] = ch
	return ch, nil
}

// Unsubscribe removes pid from every topic and closes its channels.
func (p *PubSub) Unsubscribe(pid uuid.UUID) {
	p.mux.Lock()
	defer p.mux.Unlock()
	for _, subs := range p.subs {
		if ch, ok := subs[pid]; ok {
			close(ch)
			delete(subs, pid)
		}
	}
}

// Publish sends payload to every subscriber of topic. A subscriber whose
// buffer is full misses the message.
func (p *PubSub) Publish(topic Topic, payload interface{}) {
	m := New(p.pid, topic, payload)
	p.mux.Lock()
	defer p.mux.Unlock()
	for pid, ch := range p.subs[topic] {
		select {
		case ch <- m:
		default:
			log.Printf("[PubSub] dropped %v message for %v", topic, pid)
		}
	}
}
