package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

const (
	memoryFile    = "/test-mcp-file.txt"
	memoryDir     = "/test-mcp-dir"
	memoryNested  = memoryDir + "/nested/file.txt"
	memoryRenamed = "/renamed.txt"
)

func memoryCases() []suite.TestCase {
	memory := func(name, command string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		all := append([]suite.Arg{suite.A("command", command)}, args...)
		return invoke(GroupMemory, "memory", command, name, suite.ArgsOf(all...), expect)
	}
	cleanup := func(path string) suite.TestCase {
		c := memory("remove "+path, "delete", matchers.Succeeds(), suite.A("path", path))
		c.Setup = true
		return c
	}
	return []suite.TestCase{
		cleanup(memoryFile),
		cleanup(memoryDir),
		cleanup(memoryRenamed),
		memory("create simple file", "create", matchers.Succeeds(),
			suite.A("path", memoryFile), suite.A("content", "Hello")),
		memory("view file", "view", matchers.Contains("Hello"),
			suite.A("path", memoryFile)),
		memory("str_replace success", "str_replace", matchers.Succeeds(),
			suite.A("path", memoryFile), suite.A("old_str", "Hello"), suite.A("new_str", "World")),
		memory("view replaced", "view", matchers.Contains("World").And(matchers.DoesNotContain("Hello")),
			suite.A("path", memoryFile)),
		memory("insert line", "insert", matchers.Succeeds(),
			suite.A("path", memoryFile), suite.A("insert_line", 1), suite.A("insert_text", "New line")),
		memory("view range", "view", matchers.Contains("World").And(matchers.Contains("New line")),
			suite.A("path", memoryFile), suite.A("view_range", []interface{}{1, 2})),
		memory("create nested", "create", matchers.Succeeds(),
			suite.A("path", memoryNested), suite.A("content", "nested")),
		memory("view nested", "view", matchers.Contains("nested"),
			suite.A("path", memoryNested)),
		memory("view directory", "view", matchers.Contains(memoryNested),
			suite.A("path", memoryDir)),
		memory("rename file", "rename", matchers.Succeeds(),
			suite.A("old_path", memoryFile), suite.A("new_path", memoryRenamed)),
		memory("delete renamed file", "delete", matchers.Succeeds(),
			suite.A("path", memoryRenamed)),
		memory("delete nested", "delete", matchers.Succeeds(),
			suite.A("path", memoryNested)),
		memory("verify deleted", "view", matchers.FailureExpected(),
			suite.A("path", memoryFile)),
	}
}
