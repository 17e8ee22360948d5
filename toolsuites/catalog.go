package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

const (
	GroupCalculate = "calculate"
	GroupEcho      = "echo"
	GroupFileRead  = "fileread"
	GroupFileWrite = "filewrite"
	GroupMemory    = "memory"
	GroupTodo      = "todo"
	GroupPlanner   = "planner"
	GroupDiscovery = "discovery"
)

// AllGroups returns the catalog's groups in the order they run.
func AllGroups() []string {
	return []string{
		GroupCalculate, GroupEcho, GroupFileRead, GroupFileWrite,
		GroupMemory, GroupTodo, GroupPlanner, GroupDiscovery,
	}
}

// Catalog returns every built-in case, in running order. Discovery cases for resources and
// prompts are included only if the host declared the matching capability.
func Catalog(capabilities framework.Capabilities) []suite.TestCase {
	var ret []suite.TestCase
	ret = append(ret, calculateCases()...)
	ret = append(ret, echoCases()...)
	ret = append(ret, fileReadCases()...)
	ret = append(ret, fileWriteCases()...)
	ret = append(ret, memoryCases()...)
	ret = append(ret, todoCases()...)
	ret = append(ret, plannerCases()...)
	ret = append(ret, discoveryCases(capabilities)...)
	return ret
}

// Register adds the catalog to r.
func Register(r *suite.Registry, capabilities framework.Capabilities) error {
	return r.Add(Catalog(capabilities)...)
}

func invoke(group, tool, operation, name string, args suite.Args, expect matchers.Expectation) suite.TestCase {
	return suite.TestCase{
		Name:      name,
		Group:     group,
		Operation: operation,
		Tool:      tool,
		Args:      args,
		Expect:    expect,
	}
}
