package transport

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/IdanG7/matchmaker-platform/internal/domains/entities"
	"github.com/IdanG7/matchmaker-platform/pkg/logging"
)

// Publisher is the outbound sink for formed matches. The NATS client
// implements it for production; tests use FakePublisher.
type Publisher interface {
	PublishMatchFound(match entities.MatchResult) error
}

// QueueEventHandler receives each decoded inbound queue event.
type QueueEventHandler func(ev QueueEvent)

// Config for the NATS boundary.
type Config struct {
	URL               string
	QueueSubject      string
	MatchFoundSubject string
}

// Client wraps the NATS connection the matchmaker runs on: one wildcard
// subscription for queue events in, match.found publishes out.
type Client struct {
	conn              *nats.Conn
	matchFoundSubject string
}

func Connect(cfg Config) (*Client, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("matchmaker"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second*5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn("disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logging.Info("reconnected to NATS", zap.String("url", conn.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to NATS server")
	}
	logging.Info("connected to NATS server", zap.String("url", conn.ConnectedUrl()))
	return &Client{
		conn:              conn,
		matchFoundSubject: cfg.MatchFoundSubject,
	}, nil
}

// SubscribeQueueEvents delivers every decodable event on the subject to the
// handler. Undecodable payloads are logged and dropped.
func (c *Client) SubscribeQueueEvents(subject string, handler QueueEventHandler) error {
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev QueueEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logging.Error("failed to decode queue event",
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
			return
		}
		handler(ev)
	})
	if err != nil {
		return eris.Wrapf(err, "failed to subscribe to %s", subject)
	}
	return nil
}

func (c *Client) PublishMatchFound(match entities.MatchResult) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return eris.Wrap(err, "failed to encode match result")
	}
	if err := c.conn.Publish(c.matchFoundSubject, payload); err != nil {
		return eris.Wrapf(err, "failed to publish to %s", c.matchFoundSubject)
	}
	return nil
}

// Close drains the connection, letting in-flight messages finish.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		logging.Error("failed to drain NATS connection", zap.Error(err))
	}
}
