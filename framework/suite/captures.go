package suite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Capture saves part of a successful outcome so that later cases in the same group can use it.
// A case refers to a captured value by writing "${name}" in a string argument.
type Capture struct {
	Name string
	// Path is the sequence of object keys that leads from the outcome to the value. An empty
	// path captures the whole outcome.
	Path []string
}

// C creates a Capture from a dotted path such as "todo.id".
func C(name, path string) Capture {
	var keys []string
	if path != "" {
		keys = strings.Split(path, ".")
	}
	return Capture{Name: name, Path: keys}
}

var referencePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// capturedValues holds the values captured so far in one group.
type capturedValues map[string]ldvalue.Value

func (cv capturedValues) save(captures []Capture, outcome ldvalue.Value) error {
	for _, c := range captures {
		v := outcome
		for _, key := range c.Path {
			next, ok := v.TryGetByKey(key)
			if !ok {
				return fmt.Errorf("cannot capture %q: outcome has no %q at %s", c.Name, key,
					strings.Join(c.Path, "."))
			}
			v = next
		}
		cv[c.Name] = v
	}
	return nil
}

// resolve replaces references in string arguments, including strings inside arrays and
// objects. A string that is exactly one reference becomes the captured value itself, so a
// captured number stays a number.
func (cv capturedValues) resolve(args Args) (Args, error) {
	var missing []string
	var substitute func(ldvalue.Value) ldvalue.Value
	substitute = func(v ldvalue.Value) ldvalue.Value {
		switch {
		case v.IsString():
			s := v.StringValue()
			if m := referencePattern.FindStringSubmatch(s); m != nil && m[0] == s {
				if captured, ok := cv[m[1]]; ok {
					return captured
				}
				missing = append(missing, m[1])
				return v
			}
			return ldvalue.String(referencePattern.ReplaceAllStringFunc(s, func(ref string) string {
				name := referencePattern.FindStringSubmatch(ref)[1]
				captured, ok := cv[name]
				if !ok {
					missing = append(missing, name)
					return ref
				}
				if captured.IsString() {
					return captured.StringValue()
				}
				return captured.JSONString()
			}))
		case v.Type() == ldvalue.ArrayType || v.Type() == ldvalue.ObjectType:
			return v.Transform(func(_ int, _ string, item ldvalue.Value) (ldvalue.Value, bool) {
				return substitute(item), true
			})
		default:
			return v
		}
	}
	ret := make(Args, 0, len(args))
	for _, a := range args {
		ret = append(ret, Arg{Name: a.Name, Value: substitute(a.Value)})
	}
	if len(missing) != 0 {
		return nil, fmt.Errorf("no value was captured for %s", strings.Join(missing, ", "))
	}
	return ret, nil
}
