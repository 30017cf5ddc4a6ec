// Package events publishes advisory events to NATS and MQTT.
package events

import (
	"context"
	"errors"
	"strings"
)

// Publisher sends a JSON-encoded payload to a dot-separated subject
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close()                                     {}

// Multi fans out to every publisher and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, subject string, payload any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, subject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() {
	for _, p := range m {
		p.Close()
	}
}

// Combine returns Noop, the single publisher, or a Multi
func Combine(pubs ...Publisher) Publisher {
	var live Multi
	for _, p := range pubs {
		if p != nil {
			live = append(live, p)
		}
	}
	switch len(live) {
	case 0:
		return Noop{}
	case 1:
		return live[0]
	default:
		return live
	}
}

// Topic maps a NATS subject to an MQTT topic: dots become slashes and
// spaces are removed.
func Topic(subject string) string {
	return strings.ReplaceAll(strings.ReplaceAll(subject, " ", ""), ".", "/")
}
