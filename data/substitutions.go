package data

import (
	"errors"
	"sort"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

var errBadParameters = errors.New(`"parameters" must be a list of objects or a list of lists of objects`)

var unescapeAngleBrackets = strings.NewReplacer(`\u003c`, "<", `\u003e`, ">")

// substitutionSet maps a placeholder name to its value. In a suite file, "<name>" is replaced
// with the value's text inside a string, and a string that is exactly "<name>" is replaced with
// the value itself, so "<a>" can stand for a number.
type substitutionSet map[string]ldvalue.Value

type substitutionHeader struct {
	Constants  substitutionSet `json:"constants"`
	Parameters ldvalue.Value   `json:"parameters"`
}

// expandSubstitutions applies the file's "constants" and produces one copy of the data for each
// set of "parameters". Parameters are either a list of sets, or a list of lists of sets whose
// every combination is used, with the first list varying fastest.
func expandSubstitutions(original []byte) ([]SourceInfo, error) {
	var header substitutionHeader
	if err := ParseJSONOrYAML(original, &header); err != nil {
		return nil, err
	}
	sets, err := parameterSets(header.Parameters)
	if err != nil {
		return nil, err
	}
	if len(header.Constants) == 0 && len(sets) == 0 {
		return []SourceInfo{{Data: original}}, nil
	}
	withConstants := header.Constants.apply(original)
	if len(sets) == 0 {
		return []SourceInfo{{Data: withConstants}}, nil
	}
	ret := make([]SourceInfo, 0, len(sets))
	for _, set := range sets {
		// a parameter value may itself name a constant
		data := header.Constants.apply(set.apply(withConstants))
		ret = append(ret, SourceInfo{Data: data, Params: set})
	}
	return ret, nil
}

func parameterSets(params ldvalue.Value) ([]substitutionSet, error) {
	switch {
	case params.IsNull():
		return nil, nil
	case params.Type() != ldvalue.ArrayType:
		return nil, errBadParameters
	case params.Count() == 0:
		return nil, nil
	case params.GetByIndex(0).Type() != ldvalue.ArrayType:
		return objectList(params)
	}
	lists := make([][]substitutionSet, 0, params.Count())
	for i := 0; i < params.Count(); i++ {
		list, err := objectList(params.GetByIndex(i))
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return combinations(lists), nil
}

func objectList(v ldvalue.Value) ([]substitutionSet, error) {
	if v.Type() != ldvalue.ArrayType {
		return nil, errBadParameters
	}
	ret := make([]substitutionSet, 0, v.Count())
	for i := 0; i < v.Count(); i++ {
		item := v.GetByIndex(i)
		if item.Type() != ldvalue.ObjectType {
			return nil, errBadParameters
		}
		set := make(substitutionSet, item.Count())
		for _, k := range item.Keys(nil) {
			set[k] = item.GetByKey(k)
		}
		ret = append(ret, set)
	}
	return ret, nil
}

// combinations merges one set from each list in every possible way. Within the result, the
// first list varies fastest.
func combinations(lists [][]substitutionSet) []substitutionSet {
	ret := []substitutionSet{{}}
	for _, list := range lists {
		next := make([]substitutionSet, 0, len(ret)*len(list))
		for _, set := range list {
			for _, partial := range ret {
				next = append(next, partial.merge(set))
			}
		}
		ret = next
	}
	return ret
}

func (s substitutionSet) merge(other substitutionSet) substitutionSet {
	ret := make(substitutionSet, len(s)+len(other))
	for k, v := range s {
		ret[k] = v
	}
	for k, v := range other {
		ret[k] = v
	}
	return ret
}

func (s substitutionSet) apply(data []byte) []byte {
	if len(s) == 0 {
		return data
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names)*4)
	for _, name := range names {
		value := s[name]
		text := value.JSONString()
		if value.IsString() {
			text = value.StringValue()
		}
		// the quoted form must come first so that it wins over the bare form
		pairs = append(pairs, `"<`+name+`>"`, value.JSONString(), "<"+name+">", text)
	}
	return []byte(strings.NewReplacer(pairs...).Replace(unescapeAngleBrackets.Replace(string(data))))
}
