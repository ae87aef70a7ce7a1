package bridge

import (
	"fmt"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// MQTTClient is the broker surface the bridge needs.
type MQTTClient interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// Options configures a Bridge.
type Options struct {
	Subscriptions []config.Subscription
	Client        MQTTClient
	Router        *Router
	Logger        Logger
}

// Bridge subscribes the configured topic patterns and feeds inbound
// messages to the router.
type Bridge struct {
	subs   []config.Subscription
	client MQTTClient
	router *Router
	logger Logger
}

// New builds a Bridge from opts.
func New(opts Options) (*Bridge, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("bridge: mqtt client is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("bridge: router is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		subs:   opts.Subscriptions,
		client: opts.Client,
		router: opts.Router,
		logger: logger,
	}, nil
}

// Start subscribes each distinct topic pattern once. Repeated patterns use
// the QoS of their first occurrence. A failed subscribe is logged and the
// remaining patterns are still attempted; the daemon keeps running with
// whatever subset succeeded.
func (b *Bridge) Start() error {
	seen := make(map[string]struct{}, len(b.subs))
	for _, sub := range b.subs {
		if _, ok := seen[sub.Topic]; ok {
			continue
		}
		seen[sub.Topic] = struct{}{}

		if err := b.client.Subscribe(sub.Topic, byte(sub.QoS), b.router.Dispatch); err != nil {
			b.logger.Error("subscribe failed",
				"topic", sub.Topic,
				"qos", sub.QoS,
				"error", err,
			)
			continue
		}
		b.logger.Info("subscribed", "topic", sub.Topic, "qos", sub.QoS)
	}
	return nil
}
