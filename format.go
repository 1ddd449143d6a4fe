package calcdoc

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// CoerceNumber converts raw field text to a number the way the browser runtime
// does: the longest numeric prefix is parsed; empty or non-numeric text is 0.
func CoerceNumber(raw string) float64 {
	f, ok := parseNumberPrefix(raw)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return f
}

// CoerceInput returns the value a formula receives for a field. Choice fields pass
// their text through; every other field is coerced to a number.
func CoerceInput(raw string, choice bool) any {
	if choice {
		return raw
	}
	return CoerceNumber(raw)
}

// parseNumberPrefix parses a leading decimal literal after optional whitespace.
// "12px" is 12, "1e3x" is 1000, "abc" and "." are not numbers.
func parseNumberPrefix(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		// Out of range literals saturate to ±Inf or 0.
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// FormatOutput renders a computed value for display. ok is false for nil, which
// means the output keeps its previous text.
func FormatOutput(v any, format OutputFormat) (text string, ok bool) {
	if v == nil {
		return "", false
	}
	switch format {
	case FormatCurrency:
		if f, isNum := numericValue(v); isNum {
			return "$" + toFixed(f, 2), true
		}
	case FormatPercent:
		if f, isNum := numericValue(v); isNum {
			return toFixed(f, 1) + "%", true
		}
	}
	return displayString(v), true
}

func numericValue(v any) (float64, bool) {
	switch x := normalizeValue(v).(type) {
	case float64:
		return x, !math.IsNaN(x)
	case string:
		f, ok := parseNumberPrefix(x)
		return f, ok && !math.IsNaN(f)
	default:
		return 0, false
	}
}

func displayString(v any) string {
	switch x := normalizeValue(v).(type) {
	case float64:
		return numberString(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// numberString prints a float64 in the shortest form that round-trips, switching
// to exponent notation outside [1e-6, 1e21).
func numberString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toFixed formats f with the given number of decimals, rounding exact ties away
// from zero. Magnitudes of 1e21 and above fall back to numberString.
func toFixed(f float64, decimals int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1e21 {
		return numberString(f)
	}
	neg := f < 0
	r := new(big.Rat).SetFloat64(math.Abs(f))
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	r.Add(r, big.NewRat(1, 2))
	n := new(big.Int).Quo(r.Num(), r.Denom())

	s := n.String()
	if decimals > 0 {
		if len(s) <= decimals {
			s = strings.Repeat("0", decimals-len(s)+1) + s
		}
		s = s[:len(s)-decimals] + "." + s[len(s)-decimals:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
