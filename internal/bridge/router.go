package bridge

import (
	"strings"

	"github.com/gpiobridge/gpiobridge/internal/infrastructure/config"
)

// LineDriver drives GPIO lines selected by link identifier.
type LineDriver interface {
	Set(link string, value bool)
}

// ProcessDriver drives managed commands selected by link identifier.
type ProcessDriver interface {
	Apply(link string, on bool)
}

// Logger defines the logging interface for the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Router dispatches decoded MQTT messages to the configured outputs.
type Router struct {
	subs   []config.Subscription
	lines  LineDriver
	procs  ProcessDriver
	logger Logger
}

// NewRouter builds a router over the configured subscriptions. lines or
// procs may be nil when the corresponding output class is unused.
func NewRouter(subs []config.Subscription, lines LineDriver, procs ProcessDriver, logger Logger) *Router {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Router{subs: subs, lines: lines, procs: procs, logger: logger}
}

// Dispatch decodes payload and drives every subscription whose topic
// pattern prefixes topic. Payloads other than exactly "ON" or "OFF" are
// logged and dropped.
func (r *Router) Dispatch(topic string, payload []byte) error {
	var state bool
	switch string(payload) {
	case "ON":
		state = true
	case "OFF":
		state = false
	default:
		r.logger.Warn("unrecognised payload, message dropped",
			"topic", topic,
			"payload", string(payload),
		)
		return nil
	}

	matched := 0
	for _, sub := range r.subs {
		if !strings.HasPrefix(topic, sub.Topic) {
			continue
		}
		matched++

		effective := state
		if sub.Invert {
			effective = !effective
		}
		r.logger.Debug("dispatching state",
			"topic", topic,
			"pattern", sub.Topic,
			"link", sub.Link,
			"state", effective,
		)
		if r.lines != nil {
			r.lines.Set(sub.Link, effective)
		}
		if r.procs != nil {
			r.procs.Apply(sub.Link, effective)
		}
	}

	if matched == 0 {
		r.logger.Debug("no subscription matched topic", "topic", topic)
	}
	return nil
}
