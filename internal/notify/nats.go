package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	streamName    = "NOTIFICATIONS"
	subjectPrefix = "notifications."
)

// Notification is the message body published for a user
type Notification struct {
	UserID  string                 `json:"userId"`
	Message string                 `json:"message"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	SentAt  time.Time              `json:"sentAt"`
}

// NATSNotifier publishes notifications to notifications.<userId> for the
// push gateway to pick up.
type NATSNotifier struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	log *zap.Logger
}

// NewNATSNotifier connects to url and makes sure the notification stream exists
func NewNATSNotifier(url string, log *zap.Logger) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.Name("biteswipe"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	if err != nil {
		// publishing still works once the stream shows up
		log.Warn("failed to ensure notification stream", zap.String("stream", streamName), zap.Error(err))
	}

	return &NATSNotifier{nc: nc, js: js, log: log}, nil
}

// Notify publishes one notification for userID
func (n *NATSNotifier) Notify(ctx context.Context, userID, message string, payload map[string]interface{}) error {
	subject, data, err := encode(userID, message, payload, time.Now())
	if err != nil {
		return err
	}
	if _, err := n.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish notification to subject %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			n.log.Warn("failed to drain NATS connection", zap.Error(err))
		}
	}
}

func encode(userID, message string, payload map[string]interface{}, at time.Time) (string, []byte, error) {
	data, err := json.Marshal(Notification{
		UserID:  userID,
		Message: message,
		Payload: payload,
		SentAt:  at.UTC(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return subjectPrefix + userID, data, nil
}
