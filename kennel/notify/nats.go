package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/m3rciful/kennelbot/core/logger"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

// DefaultSubject is used when no NATS subject is configured.
const DefaultSubject = "kennel.inquiries"

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// msgNamespace scopes inquiry message ids.
var msgNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kennelbot:inquiry"))

// MessageID derives the Nats-Msg-Id of r. The same record always maps to the
// same id, so a JetStream stream on the subject drops republished copies.
func MessageID(r inquiry.Record) string {
	key := fmt.Sprintf("%d\x00%s\x00%s", r.UserID, r.Date, r.Message)
	return uuid.NewSHA1(msgNamespace, []byte(key)).String()
}

// NATS publishes each inquiry as JSON for downstream consumers.
type NATS struct {
	pub     Publisher
	subject string
	conn    *nats.Conn
}

// NewNATS publishes through pub on subject.
func NewNATS(pub Publisher, subject string) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{pub: pub, subject: subject}
}

// DialNATS connects to url and returns a notifier owning the connection.
func DialNATS(ctx context.Context, url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("kennelbot"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.LogEvent(context.Background(), logger.Notify, slog.LevelWarn, "nats.disconnect",
					slog.String("err", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("notify nats: connect: %w", err)
	}
	n := NewNATS(nc, subject)
	n.conn = nc
	logger.LogEvent(ctx, logger.Notify, slog.LevelInfo, "nats.connect",
		slog.String("status", "ok"),
		slog.String("subject", n.subject),
	)
	return n, nil
}

// Subject returns the subject inquiries are published on.
func (n *NATS) Subject() string { return n.subject }

// Notify publishes r.
func (n *NATS) Notify(ctx context.Context, r inquiry.Record) error {
	data, err := json.Marshal(r)
	if err == nil {
		msg := nats.NewMsg(n.subject)
		msg.Data = data
		msg.Header.Set(nats.MsgIdHdr, MessageID(r))
		msg.Header.Set("Content-Type", "application/json")
		err = n.pub.PublishMsg(msg)
	}
	err = wrap("nats", err)
	observe(ctx, "nats", err)
	return err
}

// Close drains the connection opened by DialNATS.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
