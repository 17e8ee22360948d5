package data

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	yaml "gopkg.in/yaml.v3"
)

// ParseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it will convert the YAML to JSON and then parse it as JSON.
//
// The conversion keeps mapping keys in the order they appear in the file, so types that care
// about property order (such as suite.Args) see the same order for both formats.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	jsonData, err := YAMLToJSON(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// YAMLToJSON converts a YAML document to JSON. Anchors, aliases and merge keys ("<<") are
// resolved; keys that are not scalars are rejected.
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	w := jwriter.NewWriter()
	if len(doc.Content) == 0 {
		w.Null()
	} else if err := writeYAMLNode(&w, doc.Content[0]); err != nil {
		return nil, err
	}
	return w.Bytes(), w.Error()
}

type yamlPair struct {
	key   string
	value *yaml.Node
}

func writeYAMLNode(w *jwriter.Writer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			w.Null()
			return nil
		}
		return writeYAMLNode(w, node.Content[0])
	case yaml.AliasNode:
		return writeYAMLNode(w, node.Alias)
	case yaml.SequenceNode:
		arr := w.Array()
		for _, item := range node.Content {
			if err := writeYAMLNode(w, item); err != nil {
				return err
			}
		}
		arr.End()
		return nil
	case yaml.MappingNode:
		pairs, err := mappingPairs(node)
		if err != nil {
			return err
		}
		obj := w.Object()
		for _, p := range pairs {
			if err := writeYAMLNode(obj.Name(p.key), p.value); err != nil {
				return err
			}
		}
		obj.End()
		return nil
	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return err
		}
		ldvalue.CopyArbitraryValue(v).WriteToJSONWriter(w)
		return nil
	default:
		return fmt.Errorf("unsupported YAML node at line %d", node.Line)
	}
}

// mappingPairs returns the entries of a mapping in order. Entries brought in by a merge key come
// first, and an explicit key replaces a merged one in place.
func mappingPairs(node *yaml.Node) ([]yamlPair, error) {
	var ret []yamlPair
	set := func(p yamlPair) {
		for i := range ret {
			if ret[i].key == p.key {
				ret[i].value = p.value
				return
			}
		}
		ret = append(ret, p)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf(
				"YAML data contained a map key at line %d that is not a scalar; only string keys are allowed", k.Line)
		}
		if isMergeKey(k) {
			merged, err := mergeSources(v)
			if err != nil {
				return nil, err
			}
			for _, m := range merged {
				pairs, err := mappingPairs(m)
				if err != nil {
					return nil, err
				}
				for _, p := range pairs {
					set(p)
				}
			}
			continue
		}
		set(yamlPair{key: k.Value, value: v})
	}
	return ret, nil
}

func isMergeKey(k *yaml.Node) bool {
	return k.Value == "<<" && (k.Tag == "!!merge" || k.Tag == "") &&
		k.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0
}

func mergeSources(v *yaml.Node) ([]*yaml.Node, error) {
	for v.Kind == yaml.AliasNode {
		v = v.Alias
	}
	switch v.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{v}, nil
	case yaml.SequenceNode:
		var ret []*yaml.Node
		for _, item := range v.Content {
			more, err := mergeSources(item)
			if err != nil {
				return nil, err
			}
			ret = append(ret, more...)
		}
		return ret, nil
	default:
		return nil, errors.New("YAML merge key must refer to a mapping")
	}
}
