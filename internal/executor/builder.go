package executor

import schema "github.com/hanpama/neograph/internal/schema"

// Builder assembles an Executor from an executable schema and optional
// instrumentation.
type Builder struct {
	executable      ExecutableSchema
	instrumentation Instrumentation
}

// NewBuilder starts a Builder for es.
func NewBuilder(es ExecutableSchema) *Builder {
	return &Builder{executable: es}
}

// WithInstrumentation attaches i, replacing any previous instrumentation.
func (b *Builder) WithInstrumentation(i Instrumentation) *Builder {
	b.instrumentation = i
	return b
}

// Instrumentation returns the attached instrumentation, or nil.
func (b *Builder) Instrumentation() Instrumentation { return b.instrumentation }

// Schema returns the schema the executor will serve.
func (b *Builder) Schema() *schema.Schema { return b.executable.Schema }

// Runtime returns the runtime the executor will call.
func (b *Builder) Runtime() Runtime { return b.executable.Runtime }

// Build returns a ready Executor.
func (b *Builder) Build() *Executor {
	e := NewExecutor(b.executable.Runtime, b.executable.Schema)
	e.instrumentation = b.instrumentation
	return e
}
