package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/samvad-hq/newstone/pkg/events"
)

// EventNewsRefreshed is the type of the event sent after a cache refresh.
const EventNewsRefreshed = events.NewsRefreshed

// Event is the payload delivered to every sink.
type Event = events.Event

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the structured logger used by sinks.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// Fanout publishes each event to every sink it holds.
type Fanout struct {
	pubs []Publisher
	log  Logger
}

// NewFanout returns a Fanout over pubs.
func NewFanout(pubs []Publisher, log Logger) *Fanout {
	return &Fanout{pubs: pubs, log: ensureLogger(log)}
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int {
	if f == nil {
		return 0
	}
	return len(f.pubs)
}

// Publish sends evt to every sink. All sinks are attempted; failures are joined.
func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.pubs {
		if err := p.Publish(ctx, evt); err != nil {
			f.log.WarnObj("sink publish failed", "publisher_error", map[string]any{
				"sink":     p.ID(),
				"type":     p.Type(),
				"event_id": evt.ID,
				"error":    err.Error(),
			})
			errs = append(errs, fmt.Errorf("sink %s: %w", p.ID(), err))
			continue
		}
		f.log.DebugObj("sink publish ok", "publisher_delivered", map[string]any{
			"sink":     p.ID(),
			"event_id": evt.ID,
		})
	}
	return errors.Join(errs...)
}

// Close releases sinks that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

func encodeEvent(evt Event) ([]byte, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return body, nil
}
