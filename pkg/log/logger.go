package log

// Logger receives broker session events. Log is called inline from the
// session loop, so implementations must be quick and safe for concurrent
// use.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) { f(event) }

// NoopLogger discards all events.
type NoopLogger struct{}

// Log does nothing.
func (NoopLogger) Log(Event) {}

// MultiLogger copies each event to every sink, in order.
// The usual pairing is a ZerologAdapter for the console and a FileLogger
// for grass-log.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a MultiLogger over sinks. Nil sinks are skipped.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{sinks: make([]Logger, 0, len(sinks))}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Log forwards event to each sink.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var (
	_ Logger = LoggerFunc(nil)
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
