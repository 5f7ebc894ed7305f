package jsvalue

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
)

type recordingTracer struct {
	msgs    []string
	keyvals [][]any
}

func (r *recordingTracer) Debug(msg string, keyvals ...any) {
	r.msgs = append(r.msgs, msg)
	r.keyvals = append(r.keyvals, keyvals)
}

func TestValueKinds(t *testing.T) {
	ctx := NewContext()

	assert.Equal(t, ctx.String("x").Kind(), KindString)
	assert.Equal(t, ctx.Number(1).Kind(), KindNumber)
	assert.Equal(t, ctx.Bool(true).Kind(), KindBoolean)
	assert.Equal(t, ctx.Object().Kind(), KindObject)
	assert.Equal(t, ctx.Array(nil).Kind(), KindArray)
	assert.Equal(t, ctx.Unknown().Kind(), KindUnknown)
	assert.Equal(t, ctx.Known(Literal{}).Kind(), KindUnknown)

	var nilValue *Value
	assert.Assert(t, nilValue.IsUnknown())
	_, ok := nilValue.LiteralValue()
	assert.Assert(t, !ok)
	assert.Equal(t, nilValue.String(), "<unknown>")
}

func TestValueLiteral(t *testing.T) {
	ctx := NewContext()

	lit, ok := ctx.Number(2.5).LiteralValue()
	assert.Assert(t, ok)
	assert.Equal(t, lit.Num(), 2.5)

	for _, v := range []*Value{ctx.Object(), ctx.Array(nil), ctx.Unknown()} {
		_, ok := v.LiteralValue()
		assert.Assert(t, !ok, "%s", v.Kind())
		assert.Assert(t, !v.IsKnown())
	}

	assert.Assert(t, ctx.NaN().IsNaN())
	assert.Assert(t, !ctx.Number(0).IsNaN())
	assert.Assert(t, ctx.NaN().Context() == ctx)
}

func TestArrayKeepsElements(t *testing.T) {
	ctx := NewContext()
	elems := []LiteralSource{ctx.Number(1), ctx.Unknown(), ctx.String("c")}

	arr := ctx.Array(elems)
	elems[0] = ctx.Number(99)

	got := arr.Elements()
	assert.Equal(t, len(got), 3)
	first, ok := got[0].LiteralValue()
	assert.Assert(t, ok)
	assert.Equal(t, first.Num(), 1.0)
	_, ok = got[1].LiteralValue()
	assert.Assert(t, !ok)

	got[2] = nil
	assert.Assert(t, arr.Elements()[2] != nil)

	assert.Assert(t, ctx.Number(1).Elements() == nil)
}

func TestSameAs(t *testing.T) {
	nan := NumberLiteral(math.NaN())
	zero := NumberLiteral(0)
	negZero := NumberLiteral(math.Copysign(0, -1))

	assert.Assert(t, nan.SameAs(NumberLiteral(math.NaN())))
	assert.Assert(t, !zero.SameAs(negZero))
	assert.Assert(t, negZero.SameAs(negZero))
	assert.Assert(t, !StringLiteral("1").SameAs(NumberLiteral(1)))
	assert.Assert(t, BoolLiteral(false).SameAs(BoolLiteral(false)))
}

func TestValueString(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, ctx.String("a\"b").String(), `"a\"b"`)
	assert.Equal(t, ctx.Number(-1.25).String(), "-1.25")
	assert.Equal(t, ctx.Bool(false).String(), "false")
	assert.Equal(t, ctx.Object().String(), "[object Object]")
	assert.Equal(t, ctx.Array([]LiteralSource{ctx.Number(1)}).String(), "[array len=1]")
}

func TestLiteralStringEscapes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`a"b\c`, `"a\"b\\c"`},
		{"tab\tnl\ncr\r", `"tab\tnl\ncr\r"`},
		{"\b\f\v", `"\b\f\v"`},
		{"\x01\x1f\x7f", `"\x01\x1F\x7F"`},
		{"caf\u00e9 \u2603", "\"caf\u00e9 \u2603\""},
		{"line\u2028sep\u2029", `"line\u2028sep\u2029"`},
		{"bad\xff", `"bad\xFF"`},
	}
	for _, c := range cases {
		assert.Equal(t, StringLiteral(c.in).String(), c.want, "%q", c.in)
	}
}

type valuerArg struct {
	v *Value
}

func (a valuerArg) LiteralValue() (Literal, bool) { return a.v.LiteralValue() }
func (a valuerArg) Value() *Value                 { return a.v }

type literalArg struct {
	lit Literal
	ok  bool
}

func (a literalArg) LiteralValue() (Literal, bool) { return a.lit, a.ok }

func TestValueOf(t *testing.T) {
	ctx := NewContext()

	v := ctx.Number(math.Inf(1))
	assert.Assert(t, ValueOf(ctx, v) == v)
	assert.Assert(t, ValueOf(ctx, valuerArg{v}) == v)

	rebuilt := ValueOf(ctx, literalArg{lit: StringLiteral("s"), ok: true})
	lit, ok := rebuilt.LiteralValue()
	assert.Assert(t, ok)
	assert.Equal(t, lit.Str(), "s")

	assert.Assert(t, ValueOf(ctx, literalArg{}).IsUnknown())
}

func TestContextTrace(t *testing.T) {
	var nilCtx *Context
	nilCtx.Trace("ignored")
	NewContext().Trace("no tracer")

	tr := &recordingTracer{}
	ctx := NewContext(WithTracer(tr), WithName("content.js"))
	ctx.Trace("calling", "params", "1")

	assert.DeepEqual(t, tr.msgs, []string{"calling"})
	assert.DeepEqual(t, tr.keyvals, [][]any{{"params", "1", "file", "content.js"}})
	assert.Equal(t, ctx.Name(), "content.js")
}
