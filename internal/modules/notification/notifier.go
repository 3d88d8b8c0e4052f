package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// Toast is one user-facing notification.
type Toast struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is fire-and-forget: callers never learn whether delivery worked.
type Notifier interface {
	Notify(kind Kind, message string)
}

type NotifierFunc func(kind Kind, message string)

func (f NotifierFunc) Notify(kind Kind, message string) { f(kind, message) }

// Nop drops every notification.
var Nop Notifier = NotifierFunc(func(Kind, string) {})

type multi []Notifier

func (m multi) Notify(kind Kind, message string) {
	for _, n := range m {
		n.Notify(kind, message)
	}
}

// Multi fans a notification out to every non-nil notifier.
func Multi(ns ...Notifier) Notifier {
	out := make(multi, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

type ctxKey struct{}

// WithNotifier attaches a request-scoped notifier to ctx.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier attached by WithNotifier, or Nop.
func FromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
		return n
	}
	return Nop
}

// Outbox collects toasts until they are drained into a response.
type Outbox struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Notify(kind Kind, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toasts = append(o.toasts, Toast{Kind: kind, Message: message, At: o.now().UTC()})
}

// Drain returns pending toasts in emission order and empties the outbox.
func (o *Outbox) Drain() []Toast {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.toasts
	o.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier records every toast in the service log.
func NewLogNotifier(log *zap.Logger, fields ...zap.Field) Notifier {
	return logNotifier{log: log.With(fields...)}
}

func (l logNotifier) Notify(kind Kind, message string) {
	switch kind {
	case KindError:
		l.log.Warn("toast", zap.String("kind", string(kind)), zap.String("message", message))
	default:
		l.log.Info("toast", zap.String("kind", string(kind)), zap.String("message", message))
	}
}
