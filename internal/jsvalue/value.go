package jsvalue

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the variant tag of a Literal or a Value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindString
	KindNumber
	KindBoolean
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

var canonicalNaN = math.NaN()

// Literal is a statically known primitive: a string, a number (which may be
// NaN, ±Infinity or -0) or a boolean. The zero Literal is not valid; use the
// constructors.
type Literal struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

func StringLiteral(s string) Literal {
	return Literal{kind: KindString, str: s}
}

func NumberLiteral(f float64) Literal {
	return Literal{kind: KindNumber, num: f}
}

func BoolLiteral(b bool) Literal {
	return Literal{kind: KindBoolean, b: b}
}

func (l Literal) Kind() Kind {
	return l.kind
}

func (l Literal) Str() string {
	return l.str
}

func (l Literal) Num() float64 {
	return l.num
}

func (l Literal) Bool() bool {
	return l.b
}

// IsNaN reports whether l is the number NaN.
func (l Literal) IsNaN() bool {
	return l.kind == KindNumber && math.IsNaN(l.num)
}

// SameAs compares with SameValue semantics: NaN equals NaN and 0 differs from -0.
func (l Literal) SameAs(o Literal) bool {
	if l.kind != o.kind {
		return false
	}
	switch l.kind {
	case KindString:
		return l.str == o.str
	case KindBoolean:
		return l.b == o.b
	case KindNumber:
		if math.IsNaN(l.num) && math.IsNaN(o.num) {
			return true
		}
		ret := l.num == o.num
		if ret && l.num == 0 {
			ret = math.Signbit(l.num) == math.Signbit(o.num)
		}
		return ret
	}
	return false
}

// Export returns the plain Go value: string, float64 or bool.
func (l Literal) Export() any {
	switch l.kind {
	case KindString:
		return l.str
	case KindNumber:
		return l.num
	case KindBoolean:
		return l.b
	}
	return nil
}

// String renders the literal the way it would appear in source. Strings use
// JS escapes; printable non-ASCII characters are kept as is.
func (l Literal) String() string {
	if l.kind == KindString {
		return quoteJS(l.str)
	}
	return ToString(l)
}

const hexDigits = "0123456789ABCDEF"

func quoteJS(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[s[i]>>4])
			b.WriteByte(hexDigits[s[i]&0xF])
			i++
			continue
		}
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case '\u2028', '\u2029':
			b.WriteString(`\u`)
			b.WriteString(strconv.FormatInt(int64(r), 16))
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				b.WriteByte(hexDigits[r>>4])
				b.WriteByte(hexDigits[r&0xF])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// LiteralSource is the one capability the built-ins need from a call argument.
// ok == false means the value is not statically known; it is never an error.
type LiteralSource interface {
	LiteralValue() (lit Literal, ok bool)
}

// Valuer is implemented by argument nodes that can hand back the wrapped value
// they evaluate to.
type Valuer interface {
	Value() *Value
}

// Value is the result of abstractly evaluating an expression. Values are
// immutable: every operation produces a new one.
type Value struct {
	kind  Kind
	lit   Literal
	elems []LiteralSource
	ctx   *Context
}

func (v *Value) Kind() Kind {
	if v == nil {
		return KindUnknown
	}
	return v.kind
}

func (v *Value) IsUnknown() bool {
	return v.Kind() == KindUnknown
}

// IsKnown reports whether v holds a literal primitive.
func (v *Value) IsKnown() bool {
	switch v.Kind() {
	case KindString, KindNumber, KindBoolean:
		return true
	}
	return false
}

func (v *Value) IsNaN() bool {
	return v.IsKnown() && v.lit.IsNaN()
}

// LiteralValue makes a Value usable wherever an argument is expected.
func (v *Value) LiteralValue() (Literal, bool) {
	if !v.IsKnown() {
		return Literal{}, false
	}
	return v.lit, true
}

// Elements returns the unevaluated argument nodes held by an Array value.
func (v *Value) Elements() []LiteralSource {
	if v.Kind() != KindArray {
		return nil
	}
	return append([]LiteralSource(nil), v.elems...)
}

// Context returns the analysis context that produced v.
func (v *Value) Context() *Context {
	if v == nil {
		return nil
	}
	return v.ctx
}

func (v *Value) String() string {
	switch v.Kind() {
	case KindString, KindNumber, KindBoolean:
		return v.lit.String()
	case KindObject:
		return "[object Object]"
	case KindArray:
		return "[array len=" + strconv.Itoa(len(v.elems)) + "]"
	}
	return "<unknown>"
}

// ValueOf returns the wrapped value behind an argument node. Values and
// Valuers are returned as is, so identity is preserved; anything else is
// rebuilt from its literal.
func ValueOf(ctx *Context, arg LiteralSource) *Value {
	switch a := arg.(type) {
	case *Value:
		return a
	case Valuer:
		return a.Value()
	}
	if lit, ok := arg.LiteralValue(); ok {
		return ctx.Known(lit)
	}
	return ctx.Unknown()
}
