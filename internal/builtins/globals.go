package builtins

import (
	"math"

	"github.com/appvalidator/appvalidator/internal/jsvalue"
)

func firstLiteral(args []jsvalue.LiteralSource) (jsvalue.Literal, bool) {
	if len(args) == 0 {
		return jsvalue.Literal{}, false
	}
	return args[0].LiteralValue()
}

// String(x). Without a truthy known literal the result is a generic object
// rather than a string value, so String(""), String(0) and String(false) are
// objects too.
func stringGlobal(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	lit, ok := firstLiteral(args)
	if !ok || !jsvalue.Truthy(lit) {
		return ctx.Object()
	}
	return ctx.String(jsvalue.ToString(lit))
}

// Array(...) keeps every argument node, unevaluated.
func arrayGlobal(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	return ctx.Array(args)
}

func numberGlobal(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	if len(args) == 0 {
		return ctx.Number(0)
	}
	lit, ok := args[0].LiteralValue()
	if !ok {
		return ctx.NaN()
	}
	n, ok := jsvalue.ToNumber(lit)
	if !ok || math.IsNaN(n) {
		return ctx.NaN()
	}
	return ctx.Number(n)
}

func booleanGlobal(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	if len(args) == 0 {
		return ctx.Bool(false)
	}
	lit, ok := args[0].LiteralValue()
	if !ok {
		return ctx.Bool(false)
	}
	return ctx.Bool(jsvalue.Truthy(lit))
}

func mathLog(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	if len(args) == 0 {
		return ctx.Number(0)
	}
	lit, _ := args[0].LiteralValue()
	n := jsvalue.ToNumberOrNaN(lit)
	switch {
	case n == 0:
		return ctx.Number(math.Inf(-1))
	case n < 0:
		// NaN in the engine; reported as unknown to keep policy checks quiet
		return ctx.Unknown()
	case math.IsNaN(n):
		return ctx.NaN()
	}
	return ctx.Number(math.Log(n))
}

func mathRound(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
	if len(args) == 0 {
		return ctx.Number(0)
	}
	lit, _ := args[0].LiteralValue()
	n := jsvalue.ToNumberOrNaN(lit)
	if math.IsInf(n, 0) {
		return jsvalue.ValueOf(ctx, args[0])
	}
	if math.IsNaN(n) {
		return ctx.NaN()
	}
	// ties round toward +Infinity: -2.5 -> -2 is intended
	return ctx.Number(RoundHalfUp(n))
}

// RoundHalfUp rounds to the nearest integer, ties toward +Infinity, keeping
// the sign of negative inputs that round to zero.
func RoundHalfUp(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == math.Trunc(n) {
		return n
	}
	r := math.Floor(n)
	if n-r >= 0.5 {
		r++
	}
	if r == 0 && math.Signbit(n) {
		return math.Copysign(0, -1)
	}
	return r
}
