package log

// Logger receives the protocol events of chassis connections and sessions.
// Connections call Log while holding their exchange lock, so implementations
// must be safe for concurrent use and return quickly.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

// NoopLogger discards all events. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Tee returns a Logger that hands each event to every non-nil logger, in
// argument order. It returns nil when every argument is nil, which
// ProtocolLogger fields treat as logging disabled.
func Tee(loggers ...Logger) Logger {
	var live []Logger
	for _, l := range loggers {
		if l != nil {
			live = append(live, l)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return teeLogger(live)
}

type teeLogger []Logger

func (t teeLogger) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
	_ Logger = teeLogger(nil)
)
