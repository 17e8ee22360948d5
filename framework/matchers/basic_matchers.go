package matchers

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/spf13/cast"
)

// NumericTolerance is the largest difference at which two numbers are still considered equal.
const NumericTolerance = 1e-4

var sentinelStrings = []string{"Infinity", "-Infinity", "NaN"}

// Equal passes for a value deeply equal to expected. Numbers compare by value, so 8 and 8.0
// are equal.
func Equal(expected ldvalue.Value) Matcher[ldvalue.Value] {
	return valueMatcher(
		func(v ldvalue.Value) bool { return v.Equal(expected) },
		func(ldvalue.Value) string { return "equal to " + expected.JSONString() },
	)
}

// NumericallyEqual passes for a number, or a string holding a number, that is within
// NumericTolerance of expected.
func NumericallyEqual(expected float64) Matcher[ldvalue.Value] {
	return valueMatcher(
		func(v ldvalue.Value) bool {
			actual, ok := numberOf(v)
			return ok && math.Abs(actual-expected) < NumericTolerance
		},
		func(v ldvalue.Value) string {
			if _, ok := numberOf(v); !ok {
				return "a number close to " + formatNumber(expected)
			}
			return fmt.Sprintf("within %g of %s", NumericTolerance, formatNumber(expected))
		},
	)
}

// StringContains passes for a string that contains substr.
func StringContains(substr string) Matcher[string] {
	return New(
		func(s string) bool { return strings.Contains(s, substr) },
		func(string) string { return fmt.Sprintf("containing %q", substr) },
	)
}

// StringMatches passes for a string in which rx finds a match.
func StringMatches(rx *regexp.Regexp) Matcher[string] {
	return New(
		rx.MatchString,
		func(string) string { return fmt.Sprintf("matching /%s/", rx) },
	)
}

// IsSentinelFailure matches the values some hosts return instead of reporting an error: a
// non-finite number, one of the strings "Infinity", "-Infinity" or "NaN", or an object with an
// "error" property.
func IsSentinelFailure() Matcher[ldvalue.Value] {
	nonFinite := valueMatcher(
		func(v ldvalue.Value) bool {
			f := v.Float64Value()
			return v.IsNumber() && (math.IsInf(f, 0) || math.IsNaN(f))
		},
		func(ldvalue.Value) string { return "a non-finite number" },
	)
	sentinelString := valueMatcher(
		func(v ldvalue.Value) bool {
			s, ok := v.AsOptionalString().Get()
			return ok && isSentinelString(s)
		},
		func(ldvalue.Value) string { return "one of " + strings.Join(sentinelStrings, ", ") },
	)
	return AnyOf(nonFinite, sentinelString, HasKey("error"))
}

func isSentinelString(s string) bool {
	for _, sentinel := range sentinelStrings {
		if s == sentinel {
			return true
		}
	}
	return false
}

func numberOf(v ldvalue.Value) (float64, bool) {
	switch v.Type() {
	case ldvalue.NumberType:
		return v.Float64Value(), true
	case ldvalue.StringType:
		f, err := cast.ToFloat64E(strings.TrimSpace(v.StringValue()))
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return ldvalue.Float64(f).JSONString()
}
