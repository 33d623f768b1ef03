package testutil

// FixedTraceIDGenerator returns the same trace ID every time.
//
// This enables golden comparison of JSON command output, which otherwise
// carries a fresh UUID per invocation.
type FixedTraceIDGenerator struct {
	id string
}

// NewFixedTraceIDGenerator creates a fixed generator. If id is empty,
// Generate returns "test-trace-default".
func NewFixedTraceIDGenerator(id string) *FixedTraceIDGenerator {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceIDGenerator{id: id}
}

// Generate returns the fixed trace ID.
func (g *FixedTraceIDGenerator) Generate() string {
	return g.id
}
