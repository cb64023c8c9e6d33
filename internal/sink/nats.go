package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS publishes each case as JSON on a subject
type NATS struct {
	conn    *nats.Conn
	subject string
}

// NewNATS connects to url
func NewNATS(url, subject string) (*NATS, error) {
	if url == "" || subject == "" {
		return nil, fmt.Errorf("%w: nats sink needs sink.nats_url and sink.nats_subject", ErrUnconfigured)
	}

	conn, err := nats.Connect(url,
		nats.Name("estatescout"),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{conn: conn, subject: subject}, nil
}

// Send implements Sink
func (n *NATS) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}

	out := nats.NewMsg(n.subject)
	out.Data = data
	out.Header.Set("Estatescout-Action", msg.Action)
	out.Header.Set(nats.MsgIdHdr, msg.ID)
	if err := n.conn.PublishMsg(out); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
