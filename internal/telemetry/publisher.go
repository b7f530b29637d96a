// Package telemetry publishes evaluator state to an external transport,
// best-effort: a disconnected or unconfigured publisher is a silent no-op
// rather than a blocking or failing call.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"barkback/pkg/models"
)

const (
	micStateSubject = "barkback.mic_state"
	eventSubject    = "barkback.event"
)

// Publisher wraps a NATS connection that may not exist yet. This is the
// concrete "publish hook provided by the transport layer" the evaluator's
// telemetry surface is described against — nothing in internal/eval or
// internal/audio depends on this package directly.
type Publisher struct {
	mu      sync.Mutex
	conn    *nats.Conn
	enabled bool
}

// NewPublisher constructs a disconnected publisher. Publishing before
// Connect succeeds is a safe no-op.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Connect dials natsURL. An empty natsURL is treated as "telemetry
// disabled" and returns nil without dialing anything.
func (p *Publisher) Connect(natsURL string) error {
	if natsURL == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	opts := []nats.Option{
		nats.Name("barkbackd"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("telemetry: NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("telemetry: NATS reconnected: %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(natsURL, opts...)
	if err != nil {
		p.enabled = false
		return fmt.Errorf("telemetry: connect: %w", err)
	}

	p.conn = conn
	p.enabled = true
	return nil
}

// PublishMicState publishes the evaluator's telemetry surface. Best-effort:
// errors are swallowed, matching the reference publisher's IsEnabled/no-op
// pattern rather than propagating transport failures into the eval loop.
func (p *Publisher) PublishMicState(state models.MicState) {
	p.publish(micStateSubject, state)
}

// PublishEvent publishes a dispatch event for bench/diagnostic consumers.
func (p *Publisher) PublishEvent(ev models.Event) {
	p.publish(eventSubject, ev)
}

func (p *Publisher) publish(subject string, data interface{}) {
	p.mu.Lock()
	conn, enabled := p.conn, p.enabled
	p.mu.Unlock()

	if !enabled || conn == nil {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("telemetry: marshal %s: %v", subject, err)
		return
	}
	if err := conn.Publish(subject, payload); err != nil {
		log.Printf("telemetry: publish %s: %v", subject, err)
	}
}

// Close disconnects, if connected.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.enabled = false
	}
}

// Enabled reports whether the publisher is currently connected.
func (p *Publisher) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled && p.conn != nil
}
