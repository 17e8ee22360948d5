package data

import (
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedCall struct {
	Tool    string   `json:"tool"`
	Retry   bool     `json:"retry"`
	Weights []int    `json:"weights"`
	Tags    []string `json:"tags"`
}

func TestParseJSONOrYAML(t *testing.T) {
	want := parsedCall{Tool: "calculate", Retry: true, Weights: []int{3, 5}, Tags: []string{"math"}}
	for name, input := range map[string]string{
		"JSON":        `{"tool":"calculate","retry":true,"weights":[3,5],"tags":["math"]}`,
		"YAML block":  "tool: calculate\nretry: true\nweights:\n  - 3\n  - 5\ntags: [math]\n",
		"YAML inline": "{tool: calculate, retry: true, weights: [3, 5], tags: [math]}",
	} {
		t.Run(name, func(t *testing.T) {
			var got parsedCall
			require.NoError(t, ParseJSONOrYAML([]byte(input), &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestParseJSONOrYAMLReportsYAMLError(t *testing.T) {
	var got parsedCall
	assert.Error(t, ParseJSONOrYAML([]byte("tool: [calculate"), &got))
}

func TestYAMLToJSONKeepsKeyOrder(t *testing.T) {
	data, err := YAMLToJSON([]byte(`
operation: DIVIDE
b: 0
a: 1
nested: {z: true, y: null}
`))
	require.NoError(t, err)
	assert.Equal(t, `{"operation":"DIVIDE","b":0,"a":1,"nested":{"z":true,"y":null}}`, string(data))
}

func TestYAMLToJSONEmptyDocument(t *testing.T) {
	data, err := YAMLToJSON([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestAnchorsCanShareArguments(t *testing.T) {
	input := `---
constants:
  pair: &pair
    a: 6
    b: 3

values:
  divide:
    <<: *pair
    operation: DIVIDE
  multiply: *pair
`
	var s testExpandStruct
	require.NoError(t, ParseJSONOrYAML([]byte(input), &s))
	m.In(t).Assert(s.Values, m.JSONStrEqual(`{
  "divide": {"a": 6, "b": 3, "operation": "DIVIDE"},
  "multiply": {"a": 6, "b": 3}
}`))
}

func TestYAMLMergeKeyIsOverriddenInPlace(t *testing.T) {
	data, err := YAMLToJSON([]byte(`
base: &base {a: 1, b: 2}
other: &other {c: 3}
derived:
  <<: [*base, *other]
  a: 10
`))
	require.NoError(t, err)
	assert.Equal(t, `{"base":{"a":1,"b":2},"other":{"c":3},"derived":{"a":10,"b":2,"c":3}}`, string(data))
}

func TestYAMLToJSONErrors(t *testing.T) {
	t.Run("non-scalar key", func(t *testing.T) {
		_, err := YAMLToJSON([]byte("? [a, b]\n: 1\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a scalar")
	})

	t.Run("merge of a scalar", func(t *testing.T) {
		_, err := YAMLToJSON([]byte("x:\n  <<: 3\n"))
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := YAMLToJSON([]byte("a: [1, 2"))
		assert.Error(t, err)
	})
}
