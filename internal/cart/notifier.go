package cart

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier shows a transient message to the end user. Fire and forget.
type Notifier interface {
	NotifyError(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) NotifyError(msg string) { f(msg) }

type NopNotifier struct{}

func (NopNotifier) NotifyError(string) {}

// LogNotifier writes user notifications to the service log at debug level.
// The failure that caused one is already logged with its op and kind.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) NotifyError(msg string) {
	n.Log.Debug("user notification", zap.String("message", msg))
}

// Recorder keeps every notification, newest last.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *Recorder) NotifyError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.msgs))
	copy(out, r.msgs)
	return out
}
