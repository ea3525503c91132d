// Package events publishes verification outcomes to subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/usps/internal/domain"
	"github.com/dukerupert/usps/internal/telemetry"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "usps.address.verified"

// Publisher emits verification events.
type Publisher interface {
	Publish(ctx context.Context, ev domain.VerificationEvent) error
	Close() error
}

// Conn is the subset of *nats.Conn used by NATSPublisher.
type Conn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON-encoded events to a NATS subject.
type NATSPublisher struct {
	conn    Conn
	subject string
}

// Connect dials the NATS server at url and returns a publisher for subject.
func Connect(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.Name("usps"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return NewNATSPublisher(nc, subject), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Publish encodes ev as JSON and publishes it.
func (p *NATSPublisher) Publish(ctx context.Context, ev domain.VerificationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(ev)
	if err != nil {
		telemetry.RecordEventPublished("error")
		return fmt.Errorf("encode event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		telemetry.RecordEventPublished("error")
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}

	telemetry.RecordEventPublished("ok")
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher discards events. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, ev domain.VerificationEvent) error { return nil }
func (NoopPublisher) Close() error                                                   { return nil }

// MockPublisher records published events for tests.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, ev domain.VerificationEvent) error

	mu     sync.Mutex
	events []domain.VerificationEvent
}

func (m *MockPublisher) Publish(ctx context.Context, ev domain.VerificationEvent) error {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Events returns the events published so far.
func (m *MockPublisher) Events() []domain.VerificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.VerificationEvent(nil), m.events...)
}
