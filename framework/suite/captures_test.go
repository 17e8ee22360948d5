package suite

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureFromDottedPath(t *testing.T) {
	assert.Equal(t, Capture{Name: "plan", Path: []string{"plan", "id"}}, C("plan", "plan.id"))
	assert.Equal(t, Capture{Name: "all"}, C("all", ""))
}

func TestSaveFollowsPath(t *testing.T) {
	cv := make(capturedValues)
	outcome := ldvalue.Parse([]byte(`{"todo":{"id":"3","priority":2}}`))
	require.NoError(t, cv.save([]Capture{C("id", "todo.id"), C("todo", "todo")}, outcome))
	assert.Equal(t, ldvalue.String("3"), cv["id"])
	assert.Equal(t, outcome.GetByKey("todo"), cv["todo"])

	assert.Error(t, cv.save([]Capture{C("missing", "todo.title")}, outcome))
	assert.Error(t, cv.save([]Capture{C("missing", "todo")}, ldvalue.Int(1)))
}

func TestResolveSubstitutesReferences(t *testing.T) {
	cv := capturedValues{
		"plan_id": ldvalue.String("a1b2"),
		"count":   ldvalue.Int(2),
	}
	args := ArgsOf(
		A("planId", "${plan_id}"),
		A("limit", "${count}"),
		A("title", "Task for ${plan_id} (${count})"),
		A("tasks", ldvalue.ArrayOf(ldvalue.ObjectBuild().Set("plan", ldvalue.String("${plan_id}")).Build())),
		A("fixed", 5),
	)

	resolved, err := cv.resolve(args)
	require.NoError(t, err)
	assert.Equal(t,
		`{"planId":"a1b2","limit":2,"title":"Task for a1b2 (2)","tasks":[{"plan":"a1b2"}],"fixed":5}`,
		resolved.String())
	assert.Equal(t, `"${plan_id}"`, args.Get("planId").JSONString())
}

func TestResolveReportsMissingValues(t *testing.T) {
	_, err := capturedValues{}.resolve(ArgsOf(A("id", "${todo_id}"), A("note", "see ${other}")))
	require.Error(t, err)
	assert.Equal(t, "no value was captured for todo_id, other", err.Error())
}

func TestResolveLeavesPlainArgumentsAlone(t *testing.T) {
	args := ArgsOf(A("price", "$5"), A("template", "{name}"))
	resolved, err := capturedValues{}.resolve(args)
	require.NoError(t, err)
	assert.Equal(t, args, resolved)
}
