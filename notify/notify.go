package notify

import "github.com/rs/zerolog"

// Kind classifies a user-facing notification.
type Kind string

const (
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Notifier delivers fire-and-forget messages to the user. Implementations
// must never block the caller and never surface delivery failures to it;
// a notification is advisory, not part of any state transition.
type Notifier interface {
	Notify(kind Kind, title, detail string)
}

// Log writes notifications to a zerolog logger. It is the default sink and
// the fallback when no external channel is configured.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notifier").Logger()}
}

func (n *Log) Notify(kind Kind, title, detail string) {
	var ev *zerolog.Event
	switch kind {
	case Error:
		ev = n.log.Error()
	case Warning:
		ev = n.log.Warn()
	default:
		ev = n.log.Info()
	}
	ev.Str("kind", string(kind)).Str("detail", detail).Msg(title)
}

// Multi fans a notification out to every configured sink.
type Multi []Notifier

func (m Multi) Notify(kind Kind, title, detail string) {
	for _, n := range m {
		n.Notify(kind, title, detail)
	}
}

// Discard drops every notification. Useful in tests that do not assert on
// notifications.
type Discard struct{}

func (Discard) Notify(Kind, string, string) {}
