package builtins

import (
	"errors"
	"maps"
	"math"
	"net/url"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/appvalidator/appvalidator/internal/jsvalue"
)

// Registry maps qualified global names ("String", "Math.log") to built-ins.
// It is read-only after construction.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry(entries map[string]Func) *Registry {
	return &Registry{funcs: maps.Clone(entries)}
}

// Globals is the process-wide registry of modeled globals.
var Globals = sync.OnceValue(func() *Registry {
	return NewRegistry(globalEntries())
})

func (r *Registry) Lookup(name string) (Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.funcs))
}

func (r *Registry) Len() int {
	return len(r.funcs)
}

var (
	numNaN    = Param{Type: TypeNum, Default: math.NaN()}
	strUndef  = Param{Type: TypeString, Default: "undefined"}
	unaryMath = Fixed(numNaN)
)

func globalEntries() map[string]Func {
	return map[string]Func{
		"String":     stringGlobal,
		"Array":      arrayGlobal,
		"Number":     numberGlobal,
		"Boolean":    booleanGlobal,
		"Math.log":   mathLog,
		"Math.round": mathRound,

		"Math.abs":   Wrap(math.Abs, unaryMath),
		"Math.ceil":  Wrap(math.Ceil, unaryMath),
		"Math.floor": Wrap(math.Floor, unaryMath),
		"Math.sqrt":  Wrap(math.Sqrt, unaryMath),
		"Math.exp":   Wrap(math.Exp, unaryMath),
		"Math.sin":   Wrap(math.Sin, unaryMath),
		"Math.cos":   Wrap(math.Cos, unaryMath),
		"Math.tan":   Wrap(math.Tan, unaryMath),
		"Math.atan":  Wrap(math.Atan, unaryMath),
		"Math.atan2": Wrap(math.Atan2, Fixed(numNaN, numNaN)),
		"Math.pow":   Wrap(jsPow, Fixed(numNaN, numNaN)),
		"Math.max":   Wrap(jsMax, Variadic(TypeNum)),
		"Math.min":   Wrap(jsMin, Variadic(TypeNum)),

		"isNaN":              Wrap(math.IsNaN, unaryMath),
		"isFinite":           Wrap(isFinite, unaryMath),
		"parseFloat":         Wrap(jsvalue.ParseFloatPrefix, Fixed(strUndef)),
		"encodeURIComponent": Wrap(encodeURIComponent, Fixed(strUndef)),
		"decodeURIComponent": Wrap(decodeURIComponent, Fixed(strUndef)),
	}
}

func jsPow(x, y float64) float64 {
	if math.IsNaN(y) || (math.Abs(x) == 1 && math.IsInf(y, 0)) {
		return math.NaN()
	}
	return math.Pow(x, y)
}

func jsMax(xs ...float64) float64 {
	r := math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			return x
		}
		if x > r || (x == 0 && r == 0 && !math.Signbit(x)) {
			r = x
		}
	}
	return r
}

func jsMin(xs ...float64) float64 {
	r := math.Inf(1)
	for _, x := range xs {
		if math.IsNaN(x) {
			return x
		}
		if x < r || (x == 0 && r == 0 && math.Signbit(x)) {
			r = x
		}
	}
	return r
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

const uriUnreserved = "-_.!~*'()"

func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
			strings.IndexByte(uriUnreserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	return b.String()
}

var errMalformedURI = errors.New("URI malformed")

func decodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errMalformedURI
	}
	return out, nil
}
