// Package notify carries user-facing messages out of the tab manager: dice
// announcements and save or load failures.
package notify

//go:generate mockgen -destination=mock/mock_notifier.go -package=mocknotify -source=notifier.go

import (
	"context"
	"sync"
)

// Level is the severity of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Category groups notifications by what produced them
type Category string

const (
	CategoryRoll   Category = "roll"
	CategorySave   Category = "save"
	CategoryLoad   Category = "load"
	CategoryDelete Category = "delete"
)

// Notification is one message for the user
type Notification struct {
	Level     Level
	Category  Category
	SlotID    string
	Operation string
	Message   string
	Err       error
}

// Notifier delivers notifications. Implementations must not block for long
// and never fail the caller; delivery problems are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

// Nop discards every notification
func Nop() Notifier { return nopNotifier{} }

type multiNotifier []Notifier

// Multi fans a notification out to every non-nil notifier in order
func Multi(notifiers ...Notifier) Notifier {
	out := make(multiNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m multiNotifier) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}

// Recorder keeps every notification it receives. Tests use it to assert on
// what the user would have seen.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Notifier
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications in arrival order
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// ByCategory returns the recorded notifications of one category
func (r *Recorder) ByCategory(category Category) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Notification
	for _, n := range r.items {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}
