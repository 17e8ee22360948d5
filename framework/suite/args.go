package suite

import (
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Arg is one named argument of an operation call.
type Arg struct {
	Name  string
	Value ldvalue.Value
}

// Args is an ordered set of arguments. It is encoded as a JSON object whose properties are in
// declaration order, which some hosts echo back or depend on.
type Args []Arg

// A creates an Arg from any value that ldvalue.CopyArbitraryValue accepts.
func A(name string, value interface{}) Arg {
	if v, ok := value.(ldvalue.Value); ok {
		return Arg{Name: name, Value: v}
	}
	return Arg{Name: name, Value: ldvalue.CopyArbitraryValue(value)}
}

// ArgsOf builds Args from a list of Arg values. A repeated name replaces the earlier value but
// keeps its position.
func ArgsOf(args ...Arg) Args {
	var ret Args
	for _, a := range args {
		ret = ret.With(a.Name, a.Value)
	}
	return ret
}

// With returns a copy of the Args with the named argument set.
func (a Args) With(name string, value ldvalue.Value) Args {
	ret := make(Args, 0, len(a)+1)
	replaced := false
	for _, arg := range a {
		if arg.Name == name {
			arg.Value = value
			replaced = true
		}
		ret = append(ret, arg)
	}
	if !replaced {
		ret = append(ret, Arg{Name: name, Value: value})
	}
	return ret
}

// Get returns the named argument, or ldvalue.Null() if there is none.
func (a Args) Get(name string) ldvalue.Value {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value
		}
	}
	return ldvalue.Null()
}

func (a Args) Names() []string {
	ret := make([]string, 0, len(a))
	for _, arg := range a {
		ret = append(ret, arg.Name)
	}
	return ret
}

func (a Args) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	for _, arg := range a {
		arg.Value.WriteToJSONWriter(obj.Name(arg.Name))
	}
	obj.End()
	return w.Bytes(), w.Error()
}

// UnmarshalJSON keeps the order in which properties appear in the input.
func (a *Args) UnmarshalJSON(data []byte) error {
	var ret Args
	r := jreader.NewReader(data)
	for obj := r.ObjectOrNull(); obj.Next(); {
		name := string(obj.Name())
		var v ldvalue.Value
		v.ReadFromJSONReader(&r)
		ret = ret.With(name, v)
	}
	if err := r.Error(); err != nil {
		return err
	}
	*a = ret
	return nil
}

func (a Args) String() string {
	data, _ := a.MarshalJSON()
	return string(data)
}
