package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tms-load-service/internal/domain"

	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "tms.loads.status_changed"

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher publishes each event on <prefix>.<to status>. The event id is
// sent as Nats-Msg-Id so a JetStream stream bound to the subject drops
// duplicates.
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) (*NATSPublisher, error) {
	if conn == nil {
		return nil, errors.New("nats publisher: connection is nil")
	}
	return newNATSPublisher(conn, prefix), nil
}

func newNATSPublisher(conn msgPublisher, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(evt domain.LoadStatusChanged) string {
	return p.prefix + "." + string(evt.To)
}

func (p *NATSPublisher) Publish(ctx context.Context, evt domain.LoadStatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("nats publish: encode event %s: %w", evt.ID, err)
	}

	msg := nats.NewMsg(p.Subject(evt))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, evt.ID)
	msg.Header.Set("Tenant-Id", evt.TenantID)

	if err := p.conn.PublishMsg(msg); err != nil {
		return domain.NewRepositoryError("nats publish", err)
	}
	return nil
}

// ConnectNATS dials url with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("tms-load-service"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
