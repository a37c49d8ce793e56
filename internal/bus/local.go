package bus

import (
	"sync"

	"github.com/juju/pubsub/v2"

	"github.com/bethropolis/tandem/internal/logger"
)

var (
	defaultHub     *pubsub.SimpleHub
	defaultHubOnce sync.Once
)

// DefaultHub returns the process-wide hub shared by all local buses.
func DefaultHub() *pubsub.SimpleHub {
	defaultHubOnce.Do(func() {
		defaultHub = pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{})
	})
	return defaultHub
}

// Local broadcasts between sessions living in the same process. Every Local
// created on the same hub and channel sees every message.
type Local struct {
	hub   *pubsub.SimpleHub
	topic string

	mutex  sync.Mutex
	unsubs []func()
	closed bool
}

// NewLocal returns a bus on the given hub topic.
func NewLocal(hub *pubsub.SimpleHub, channel string) *Local {
	return &Local{hub: hub, topic: channel}
}

// Publish sends msg to every subscriber of the topic. Handlers run
// asynchronously on the hub's goroutines.
func (l *Local) Publish(msg Message) error {
	l.mutex.Lock()
	closed := l.closed
	l.mutex.Unlock()
	if closed {
		return ErrClosed
	}

	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	_ = l.hub.Publish(l.topic, payload)
	logger.DebugTagf("bus", "Published %d bytes on local topic %q", len(payload), l.topic)
	return nil
}

// Subscribe registers handler on the topic.
func (l *Local) Subscribe(handler Handler) (func(), error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return nil, ErrClosed
	}

	unsub := l.hub.Subscribe(l.topic, func(topic string, data interface{}) {
		payload, ok := data.([]byte)
		if !ok {
			logger.WarnTagf("bus", "Ignoring %T payload on local topic %q", data, topic)
			return
		}
		deliver("local:"+topic, payload, handler)
	})

	var once sync.Once
	stop := func() { once.Do(unsub) }
	l.unsubs = append(l.unsubs, stop)
	return stop, nil
}

// Close removes every subscription made through l.
func (l *Local) Close() error {
	l.mutex.Lock()
	if l.closed {
		l.mutex.Unlock()
		return nil
	}
	l.closed = true
	unsubs := l.unsubs
	l.unsubs = nil
	l.mutex.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return nil
}
