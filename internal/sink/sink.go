// Package sink delivers extracted cases to wherever they are kept: the
// local helper process, a case directory, an upload endpoint, or NATS.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/estatescout/internal/model"
)

// ErrUnconfigured is returned when the selected sink lacks a required setting
var ErrUnconfigured = errors.New("sink not configured")

// Actions understood by the helper
const (
	ActionProcessCase = "processCase"
	ActionSaveCase    = "saveCase"
)

// Message is one extracted case handed to a sink
type Message struct {
	ID         string                 `json:"id"`
	Action     string                 `json:"action"`
	CaseNumber string                 `json:"caseNumber"`
	Details    model.CaseRecord       `json:"details"`
	Documents  []model.DocumentRecord `json:"documents"`
	SentAt     time.Time              `json:"sentAt"`
}

// NewMessage wraps a record; documents are taken from the record
func NewMessage(action string, rec model.CaseRecord) Message {
	docs := rec.Documents
	if docs == nil {
		docs = []model.DocumentRecord{}
	}
	return Message{
		ID:         uuid.NewString(),
		Action:     action,
		CaseNumber: rec.CaseNumber,
		Details:    rec,
		Documents:  docs,
		SentAt:     time.Now().UTC(),
	}
}

// Sink accepts case messages
type Sink interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Kinds accepted by New
const (
	KindNone      = ""
	KindDirectory = "directory"
	KindNative    = "native"
	KindUpload    = "upload"
	KindNATS      = "nats"
)

// New builds the sink selected by cfg. The native sink writes to w.
func New(cfg model.SinkConfig, w io.Writer) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case KindNone:
		return Discard{}, nil
	case KindDirectory, "dir":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("%w: directory sink needs sink.dir", ErrUnconfigured)
		}
		return NewDirectory(cfg.Dir), nil
	case KindNative:
		return NewNative(w), nil
	case KindUpload:
		return NewUploader(cfg.UploadURL, cfg.UploadAPIKey)
	case KindNATS:
		return NewNATS(cfg.NATSURL, cfg.NATSSubject)
	default:
		return nil, fmt.Errorf("%w: unknown sink kind %q", ErrUnconfigured, cfg.Kind)
	}
}

// Discard drops every message
type Discard struct{}

// Send implements Sink
func (Discard) Send(context.Context, Message) error { return nil }

// Close implements Sink
func (Discard) Close() error { return nil }
