// Package notifier delivers user-facing alerts raised by the stores, such as
// a rejected registration. The UI layer plugs in its own implementation.
package notifier

import (
	"context"
	"sync"

	"github.com/patric-chuzhbe/cineshelf/internal/logger"
)

// Notifier shows a short alert to the user.
type Notifier interface {
	Alert(ctx context.Context, title, message string)
}

// LogNotifier writes alerts to the application log. It is the default when
// no UI is attached.
type LogNotifier struct{}

func (LogNotifier) Alert(ctx context.Context, title, message string) {
	logger.Log.Warnw("user alert", "title", title, "message", message)
}

type Alert struct {
	Title   string
	Message string
}

// Recorder keeps every alert in memory.
type Recorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *Recorder) Alert(ctx context.Context, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts = append(r.alerts, Alert{Title: title, Message: message})
}

// Alerts returns a copy of the recorded alerts in arrival order.
func (r *Recorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Alert, len(r.alerts))
	copy(result, r.alerts)

	return result
}

// Last returns the most recent alert.
func (r *Recorder) Last() (Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.alerts) == 0 {
		return Alert{}, false
	}

	return r.alerts[len(r.alerts)-1], true
}
