package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

// Plans are addressed by the id the host returns from createPlan, so a plan left behind by an
// earlier run never collides with this one.
func plannerCases() []suite.TestCase {
	planner := func(name, mode string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		all := append([]suite.Arg{suite.A("mode", mode)}, args...)
		return invoke(GroupPlanner, "planner", mode, name, suite.ArgsOf(all...), expect)
	}
	plan := suite.A("planId", "${plan_id}")

	create := planner("create plan", "createPlan", matchers.Contains("Test Plan"),
		suite.A("planName", "Test Plan"),
		suite.A("planDescription", "Plan created by the test harness"),
		suite.A("initialTasks", []interface{}{
			map[string]interface{}{"title": "Task 1"},
			map[string]interface{}{"title": "Task 2"},
		}))
	create.Captures = []suite.Capture{suite.C("plan_id", "id")}

	return []suite.TestCase{
		create,
		planner("list plans", "listPlans", matchers.Contains("Test Plan")),
		planner("get plan", "getPlan", matchers.Contains("Task 2"), plan),
		planner("add task", "addTask", matchers.Contains("New Task"),
			plan, suite.A("taskTitle", "New Task")),
		planner("get next task", "getNextTask", matchers.Contains("Task 1"), plan),
		planner("start task", "updateTask", matchers.Contains("in_progress"),
			plan, suite.A("taskId", "1"), suite.A("status", "in_progress")),
		planner("add subtask", "addSubtask", matchers.Contains("Subtask 1"),
			plan, suite.A("parentTaskId", "2"), suite.A("subtaskTitle", "Subtask 1")),
		planner("complete task", "updateTask", matchers.Contains("completed"),
			plan, suite.A("taskId", "1"), suite.A("status", "completed")),
		planner("progress after updates", "getPlan",
			matchers.Contains(`"completed":1`).And(matchers.Contains(`"total":4`)), plan),
		planner("delete plan", "deletePlan", matchers.Contains(`"deleted":true`), plan),
	}
}
