package estree

import (
	"math"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/token"

	"github.com/appvalidator/appvalidator/internal/builtins"
	"github.com/appvalidator/appvalidator/internal/jsvalue"
)

// Nested built-in calls deeper than this evaluate to Unknown.
const maxDepth = 64

// Receivers that alias the global object.
var globalAliases = []string{"window.", "globalThis.", "self."}

// Evaluator folds expressions into wrapped values. It only understands
// literals, a few unary operators and calls to registered built-ins;
// everything else is Unknown.
type Evaluator struct {
	registry *builtins.Registry
	ctx      *jsvalue.Context
	depth    int
}

func NewEvaluator(registry *builtins.Registry, ctx *jsvalue.Context) *Evaluator {
	return &Evaluator{registry: registry, ctx: ctx}
}

func (e *Evaluator) Context() *jsvalue.Context {
	return e.ctx
}

// Arg is an untraversed call argument. It is evaluated on first use.
type Arg struct {
	Expr ast.Expression

	ev  *Evaluator
	val *jsvalue.Value
}

func (e *Evaluator) NewArg(expr ast.Expression) *Arg {
	return &Arg{Expr: expr, ev: e}
}

func (a *Arg) Value() *jsvalue.Value {
	if a.val == nil {
		a.val = a.ev.Eval(a.Expr)
	}
	return a.val
}

func (a *Arg) LiteralValue() (jsvalue.Literal, bool) {
	return a.Value().LiteralValue()
}

// CalleeName returns the qualified name of a statically named callee, such
// as "String" or "Math.round". window/globalThis/self prefixes are dropped.
func CalleeName(expr ast.Expression) (string, bool) {
	name, ok := qualifiedName(expr)
	if !ok {
		return "", false
	}
	for _, prefix := range globalAliases {
		if rest, found := strings.CutPrefix(name, prefix); found {
			return rest, true
		}
	}
	return name, true
}

func qualifiedName(expr ast.Expression) (string, bool) {
	switch n := expr.(type) {
	case *ast.Identifier:
		return n.Name.String(), true
	case *ast.DotExpression:
		left, ok := qualifiedName(n.Left)
		if !ok {
			return "", false
		}
		return left + "." + n.Identifier.Name.String(), true
	case *ast.BracketExpression:
		member, ok := n.Member.(*ast.StringLiteral)
		if !ok {
			return "", false
		}
		left, ok := qualifiedName(n.Left)
		if !ok {
			return "", false
		}
		return left + "." + member.Value.String(), true
	}
	return "", false
}

// Resolve looks up the built-in a call expression targets.
func (e *Evaluator) Resolve(callee ast.Expression) (string, builtins.Func, bool) {
	name, ok := CalleeName(callee)
	if !ok {
		return "", nil, false
	}
	fn, ok := e.registry.Lookup(name)
	return name, fn, ok
}

// Call invokes fn with the argument expressions of a call site.
func (e *Evaluator) Call(fn builtins.Func, argList []ast.Expression) *jsvalue.Value {
	if e.depth >= maxDepth {
		return e.ctx.Unknown()
	}
	e.depth++
	defer func() { e.depth-- }()

	args := make([]jsvalue.LiteralSource, len(argList))
	for i, a := range argList {
		args[i] = e.NewArg(a)
	}
	return fn(e.ctx.Unknown(), args, e.ctx)
}

func (e *Evaluator) Eval(expr ast.Expression) *jsvalue.Value {
	switch n := expr.(type) {
	case *ast.StringLiteral:
		return e.ctx.String(n.Value.String())
	case *ast.NumberLiteral:
		switch v := n.Value.(type) {
		case int64:
			return e.ctx.Number(float64(v))
		case float64:
			return e.ctx.Number(v)
		}
	case *ast.BooleanLiteral:
		return e.ctx.Bool(n.Value)
	case *ast.TemplateLiteral:
		if n.Tag == nil && len(n.Expressions) == 0 && len(n.Elements) == 1 {
			return e.ctx.String(n.Elements[0].Parsed.String())
		}
	case *ast.Identifier:
		switch n.Name.String() {
		case "NaN":
			return e.ctx.NaN()
		case "Infinity":
			return e.ctx.Number(math.Inf(1))
		}
	case *ast.UnaryExpression:
		if !n.Postfix {
			return e.evalUnary(n)
		}
	case *ast.CallExpression:
		if _, fn, ok := e.Resolve(n.Callee); ok {
			return e.Call(fn, n.ArgumentList)
		}
	case *ast.NewExpression:
		if _, fn, ok := e.Resolve(n.Callee); ok {
			return e.Call(fn, n.ArgumentList)
		}
	}
	return e.ctx.Unknown()
}

func (e *Evaluator) evalUnary(n *ast.UnaryExpression) *jsvalue.Value {
	operand := e.Eval(n.Operand)
	lit, ok := operand.LiteralValue()
	if !ok {
		return e.ctx.Unknown()
	}
	switch n.Operator {
	case token.MINUS:
		return e.ctx.Number(-jsvalue.ToNumberOrNaN(lit))
	case token.PLUS:
		return e.ctx.Number(jsvalue.ToNumberOrNaN(lit))
	case token.NOT:
		return e.ctx.Bool(!jsvalue.Truthy(lit))
	case token.TYPEOF:
		return e.ctx.String(lit.Kind().String())
	}
	return e.ctx.Unknown()
}

// CallResult is one evaluated call to a modeled built-in.
type CallResult struct {
	Callee   string
	Position file.Position
	Args     int
	Value    *jsvalue.Value
}

// Evaluate visits every call expression in p that targets a registered
// built-in and reports its abstract result.
func Evaluate(p *Program, registry *builtins.Registry, ctx *jsvalue.Context, onResult func(CallResult)) {
	e := NewEvaluator(registry, ctx)
	p.Walk(func(node ast.Node) {
		var callee ast.Expression
		var argList []ast.Expression
		switch n := node.(type) {
		case *ast.CallExpression:
			callee, argList = n.Callee, n.ArgumentList
		case *ast.NewExpression:
			callee, argList = n.Callee, n.ArgumentList
		default:
			return
		}
		name, fn, ok := e.Resolve(callee)
		if !ok {
			return
		}
		onResult(CallResult{
			Callee:   name,
			Position: p.Position(node.Idx0()),
			Args:     len(argList),
			Value:    e.Call(fn, argList),
		})
	}, nil)
}
