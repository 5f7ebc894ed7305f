package jsvalue

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/dop251/goja/ftoa"
)

var (
	// StrDecimalLiteral without the Infinity forms, which are matched exactly.
	decimalLiteralRe = regexp2.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`, regexp2.ECMAScript)
	decimalPrefixRe  = regexp2.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`, regexp2.ECMAScript)
)

func fToStr(num float64, mode ftoa.FToStrMode, prec int) string {
	var buf1 [128]byte
	return string(ftoa.FToStr(num, mode, prec, buf1[:0]))
}

// ToString converts a literal the way String(x) does.
func ToString(l Literal) string {
	switch l.kind {
	case KindString:
		return l.str
	case KindBoolean:
		if l.b {
			return "true"
		}
		return "false"
	case KindNumber:
		if l.num == 0 {
			return "0"
		}
		return fToStr(l.num, ftoa.ModeStandard, 0)
	}
	return "undefined"
}

// ToNumber converts a literal the way Number(x) does. ok is false when the
// input could not be coerced, in which case n is NaN.
func ToNumber(l Literal) (n float64, ok bool) {
	switch l.kind {
	case KindNumber:
		return l.num, true
	case KindBoolean:
		if l.b {
			return 1, true
		}
		return 0, true
	case KindString:
		return StringToNumber(l.str)
	}
	return canonicalNaN, false
}

// ToNumberOrNaN is ToNumber without the success flag.
func ToNumberOrNaN(l Literal) float64 {
	n, _ := ToNumber(l)
	return n
}

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// StringToNumber parses s with the StringNumericLiteral grammar.
func StringToNumber(s string) (float64, bool) {
	str := strings.TrimFunc(s, isJSSpace)
	if str == "" {
		return 0, true
	}

	if len(str) > 2 && str[0] == '0' {
		base := 0
		switch str[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseRadix(str[2:], base)
		}
	}

	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if ok, err := decimalLiteralRe.MatchString(str); err != nil || !ok {
		return canonicalNaN, false
	}
	return parseDecimal(str)
}

func parseRadix(digits string, base int) (float64, bool) {
	// big.Int.SetString would also accept underscores and signs
	for _, c := range digits {
		if digitValue(c) >= base {
			return canonicalNaN, false
		}
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return canonicalNaN, false
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f, true
}

func digitValue(c rune) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c - 'a' + 10)
	case 'A' <= c && c <= 'F':
		return int(c - 'A' + 10)
	}
	return 36
}

func parseDecimal(str string) (float64, bool) {
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			// ±Infinity or a denormal underflow; the value is still correct
			return f, true
		}
		return canonicalNaN, false
	}
	return f, true
}

// ParseFloatPrefix implements parseFloat: the longest leading decimal literal
// after whitespace, or NaN.
func ParseFloatPrefix(s string) float64 {
	str := strings.TrimLeftFunc(s, isJSSpace)
	m, err := decimalPrefixRe.FindStringMatch(str)
	if err != nil || m == nil {
		return canonicalNaN
	}
	prefix := m.String()
	switch prefix {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	f, _ := parseDecimal(prefix)
	return f
}

// Truthy is the simplified truthiness used by Boolean(x): empty strings,
// zeros and false are falsy, everything else (NaN included) is truthy.
func Truthy(l Literal) bool {
	switch l.kind {
	case KindString:
		return l.str != ""
	case KindBoolean:
		return l.b
	case KindNumber:
		return l.num != 0
	}
	return false
}

// FromGo normalizes a native Go value into a literal.
func FromGo(v any) (Literal, bool) {
	switch x := v.(type) {
	case Literal:
		return x, x.kind != KindUnknown
	case string:
		return StringLiteral(x), true
	case bool:
		return BoolLiteral(x), true
	case float64:
		return NumberLiteral(x), true
	case float32:
		return NumberLiteral(float64(x)), true
	case int:
		return NumberLiteral(float64(x)), true
	case int8:
		return NumberLiteral(float64(x)), true
	case int16:
		return NumberLiteral(float64(x)), true
	case int32:
		return NumberLiteral(float64(x)), true
	case int64:
		return NumberLiteral(float64(x)), true
	case uint:
		return NumberLiteral(float64(x)), true
	case uint8:
		return NumberLiteral(float64(x)), true
	case uint16:
		return NumberLiteral(float64(x)), true
	case uint32:
		return NumberLiteral(float64(x)), true
	case uint64:
		return NumberLiteral(float64(x)), true
	}
	return Literal{}, false
}
