// Package publish forwards render events to NATS.
package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"dex-pair-monitor/internal/domain"
	"dex-pair-monitor/internal/observability"
	"dex-pair-monitor/internal/render"
)

// DefaultSubject is the subject used when none is configured.
const DefaultSubject = "dex.pairs.frames"

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON payload of one published event.
type Message struct {
	Type string    `json:"type"` // lines, table, metric, notice
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

// Publisher is a Surface that publishes every call to a NATS subject.
// NATS core publish is buffered by the client, so calls do not block on the network.
type Publisher struct {
	conn    Conn
	subject string
	logger  *log.Logger
	now     func() time.Time
}

// NewPublisher creates a Publisher on conn.
func NewPublisher(conn Conn, subject string, logger *log.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		now:     time.Now,
	}
}

// Compile-time interface check.
var _ render.Surface = (*Publisher)(nil)

// StatusLines implements render.Surface.
func (p *Publisher) StatusLines(lines []string) {
	p.publish("lines", lines)
}

// Table implements render.Surface.
func (p *Publisher) Table(rows []domain.PairSnapshot) {
	p.publish("table", render.NewRows(rows))
}

// Metric implements render.Surface.
func (p *Publisher) Metric(m render.Metric) {
	p.publish("metric", m)
}

// Notice implements render.Surface.
func (p *Publisher) Notice(n domain.Notice) {
	p.publish("notice", n)
}

func (p *Publisher) publish(kind string, data any) {
	payload, err := json.Marshal(Message{Type: kind, At: p.now(), Data: data})
	if err == nil {
		err = p.conn.Publish(p.subject, payload)
	}
	observability.RecordPublish("nats", err)
	if err != nil {
		p.logger.Printf("publish %s to %s: %v", kind, p.subject, err)
	}
}

// ConnectOptions configures Connect.
type ConnectOptions struct {
	Name          string
	Timeout       time.Duration // Default: 5s
	ReconnectWait time.Duration // Default: 2s
	MaxReconnects int           // Default: -1 (forever)
	Logger        *log.Logger
}

// Connect dials NATS at url with reconnect handling.
func Connect(url string, opts ConnectOptions) (*nats.Conn, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	reconnectWait := opts.ReconnectWait
	if reconnectWait == 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := opts.MaxReconnects
	if maxReconnects == 0 {
		maxReconnects = -1
	}
	name := opts.Name
	if name == "" {
		name = "dex-pair-monitor"
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(timeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Printf("NATS disconnected, attempting reconnect: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Println("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}
