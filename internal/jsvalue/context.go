package jsvalue

// Tracer receives diagnostic traces. A pslog logger satisfies it.
type Tracer interface {
	Debug(msg string, keyvals ...any)
}

// Context is the analysis context values are bound to. It only builds values
// and forwards traces; it carries no evaluation state.
type Context struct {
	name   string
	tracer Tracer
}

type Option func(*Context)

func WithTracer(t Tracer) Option {
	return func(c *Context) {
		c.tracer = t
	}
}

// WithName labels traces, usually with the file being analyzed.
func WithName(name string) Option {
	return func(c *Context) {
		c.name = name
	}
}

func NewContext(opts ...Option) *Context {
	c := &Context{}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Context) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Context) Trace(msg string, keyvals ...any) {
	if c == nil || c.tracer == nil {
		return
	}
	if c.name != "" {
		keyvals = append(keyvals, "file", c.name)
	}
	c.tracer.Debug(msg, keyvals...)
}

func (c *Context) Unknown() *Value {
	return &Value{kind: KindUnknown, ctx: c}
}

func (c *Context) Known(l Literal) *Value {
	if l.kind == KindUnknown {
		return c.Unknown()
	}
	return &Value{kind: l.kind, lit: l, ctx: c}
}

func (c *Context) String(s string) *Value {
	return c.Known(StringLiteral(s))
}

func (c *Context) Number(f float64) *Value {
	return c.Known(NumberLiteral(f))
}

func (c *Context) Bool(b bool) *Value {
	return c.Known(BoolLiteral(b))
}

// NaN returns a number value holding the canonical NaN.
func (c *Context) NaN() *Value {
	return c.Number(canonicalNaN)
}

func (c *Context) Object() *Value {
	return &Value{kind: KindObject, ctx: c}
}

// Array wraps the argument nodes without evaluating them.
func (c *Context) Array(elems []LiteralSource) *Value {
	return &Value{kind: KindArray, elems: append([]LiteralSource(nil), elems...), ctx: c}
}
