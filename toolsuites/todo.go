package toolsuites

import (
	"regexp"

	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

var priorityOrder = regexp.MustCompile(
	`(?s)"priority":"critical".*"priority":"high".*"priority":"medium".*"priority":"low"`)

func todoCases() []suite.TestCase {
	todo := func(name, mode string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		all := append([]suite.Arg{suite.A("mode", mode)}, args...)
		return invoke(GroupTodo, "todo", mode, name, suite.ArgsOf(all...), expect)
	}
	cleanup := todo("clear earlier runs", "clearCompleted", matchers.Succeeds())
	cleanup.Setup = true

	addHigh := todo("add high priority", "add", matchers.Contains("High priority task"),
		suite.A("task", "High priority task"), suite.A("priority", "high"))
	addHigh.Captures = []suite.Capture{suite.C("todo_id", "todo.id")}

	return []suite.TestCase{
		cleanup,
		addHigh,
		todo("add low priority", "add", matchers.Contains("Low priority task"),
			suite.A("task", "Low priority task"), suite.A("priority", "low")),
		todo("add critical priority", "add", matchers.Contains("Critical task"),
			suite.A("task", "Critical task"), suite.A("priority", "critical")),
		todo("add default priority", "add", matchers.Contains("Default task"),
			suite.A("task", "Default task")),
		todo("list all", "list", matchers.Contains("High priority task").And(matchers.Contains("Default task"))),
		todo("list by priority", "list", matchers.Matches(priorityOrder),
			suite.A("sort", "priority")),
		todo("update to in_progress", "update", matchers.Contains("in_progress"),
			suite.A("id", "${todo_id}"), suite.A("newStatus", "in_progress")),
		todo("list pending only", "list",
			matchers.Contains("Low priority task").And(matchers.DoesNotContain("High priority task")),
			suite.A("status", "pending")),
		todo("update to completed", "update", matchers.Contains("completed"),
			suite.A("id", "${todo_id}"), suite.A("newStatus", "completed")),
		todo("clear completed", "clearCompleted", matchers.Succeeds()),
		todo("list after clear", "list",
			matchers.DoesNotContain("High priority task").And(matchers.Contains("Low priority task"))),
	}
}
