package emit

// Emitter receives and processes observability events from pipeline turns.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - In-memory capture for tests and dashboards
//
// Implementations should be:
//   - Non-blocking: avoid slowing down turn execution
//   - Thread-safe: turns for distinct owners run concurrently
//   - Resilient: an emitter failure must never fail a turn
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	// Emit must not panic; errors should be handled internally.
	Emit(event Event)
}
