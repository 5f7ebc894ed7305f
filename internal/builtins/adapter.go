package builtins

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/appvalidator/appvalidator/internal/jsvalue"
)

// Func is the calling contract shared by every built-in. args are the raw,
// untraversed argument nodes of the call expression.
type Func func(callee *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value

// Type selects the coercion applied to an argument before it reaches the
// native function.
type Type uint8

const (
	TypeRaw Type = iota
	TypeString
	TypeNum
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNum:
		return "num"
	}
	return "raw"
}

// Param declares one positional parameter of a fixed-arity built-in.
// Default is passed verbatim when the call supplies fewer arguments.
type Param struct {
	Type    Type
	Default any
}

// Spec describes how script arguments bind to native parameters. It is
// immutable once built.
type Spec struct {
	params   []Param
	variadic bool
	varType  Type
}

func Fixed(params ...Param) Spec {
	return Spec{params: append([]Param(nil), params...)}
}

// Variadic coerces every supplied argument to t; there are no defaults.
func Variadic(t Type) Spec {
	return Spec{variadic: true, varType: t}
}

func (s Spec) IsVariadic() bool {
	return s.variadic
}

// Arity is the declared parameter count, or -1 for variadic specs.
func (s Spec) Arity() int {
	if s.variadic {
		return -1
	}
	return len(s.params)
}

func coerce(t Type, arg jsvalue.LiteralSource) any {
	lit, ok := arg.LiteralValue()
	if !ok {
		return nil
	}
	switch t {
	case TypeString:
		return jsvalue.ToString(lit)
	case TypeNum:
		return jsvalue.ToNumberOrNaN(lit)
	}
	return lit.Export()
}

// Bind computes the native parameter list for a call. A missing argument
// takes its default; a present argument without a known literal binds to nil.
func (s Spec) Bind(args []jsvalue.LiteralSource) []any {
	if s.variadic {
		params := make([]any, 0, len(args))
		for _, arg := range args {
			params = append(params, coerce(s.varType, arg))
		}
		return params
	}

	params := make([]any, 0, len(s.params))
	for _, p := range s.params {
		if len(args) > 0 {
			params = append(params, coerce(p.Type, args[0]))
			args = args[1:]
		} else {
			params = append(params, p.Default)
		}
	}
	return params
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Wrap exposes a native Go function as a built-in. fn may take any mix of
// numeric, string, bool or interface parameters, may be variadic, and may
// return nothing, a value, or a value and an error. Any failure while calling
// it yields Unknown.
func Wrap(fn any, spec Spec) Func {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("builtins.Wrap: expected a function, got %T", fn))
	}

	return func(_ *jsvalue.Value, args []jsvalue.LiteralSource, ctx *jsvalue.Context) *jsvalue.Value {
		params := spec.Bind(args)
		ctx.Trace("calling wrapped native function", "params", formatParams(params))

		out, err := invoke(fv, params)
		if err != nil {
			return ctx.Unknown()
		}
		if out == nil {
			return ctx.Unknown()
		}
		if lit, ok := jsvalue.FromGo(out); ok {
			return ctx.Known(lit)
		}
		return ctx.Unknown()
	}
}

func formatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p == nil {
			parts[i] = "None"
			continue
		}
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ", ")
}

// invoke calls fv with params. Panics inside fv surface as errors.
func invoke(fv reflect.Value, params []any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("native call panicked: %v", r)
		}
	}()

	in, err := convertArgs(fv.Type(), params)
	if err != nil {
		return nil, err
	}

	results := fv.Call(in)
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		if results[0].Type() == errorType {
			if e, _ := results[0].Interface().(error); e != nil {
				return nil, e
			}
			return nil, nil
		}
		return results[0].Interface(), nil
	case 2:
		if e, _ := results[1].Interface().(error); e != nil {
			return nil, e
		}
		return results[0].Interface(), nil
	}
	return nil, errors.New("native function returns too many values")
}

func convertArgs(ft reflect.Type, params []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(params) < n-1 {
			return nil, fmt.Errorf("want at least %d arguments, got %d", n-1, len(params))
		}
	} else if len(params) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(params))
	}

	in := make([]reflect.Value, len(params))
	for i, p := range params {
		var t reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			t = ft.In(n - 1).Elem()
		} else {
			t = ft.In(i)
		}
		v, err := convertArg(p, t)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func convertArg(p any, t reflect.Type) (reflect.Value, error) {
	if p == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("no value for %s parameter", t)
	}

	v := reflect.ValueOf(p)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	from, to := v.Kind(), t.Kind()
	if (isNumeric(from) && isNumeric(to)) ||
		(from == reflect.String && to == reflect.String) ||
		(from == reflect.Bool && to == reflect.Bool) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", p, t)
}
