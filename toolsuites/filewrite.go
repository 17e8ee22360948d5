package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

const fileWriteDir = "mcp-test-temp/filewrite"

func fileWriteCases() []suite.TestCase {
	write := func(name, mode, file string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		all := append([]suite.Arg{suite.A("mode", mode), suite.A("path", fileWriteDir+"/"+file)}, args...)
		return invoke(GroupFileWrite, "filewrite", mode, name, suite.ArgsOf(all...), expect)
	}
	prepare := invoke(GroupFileWrite, "filewrite", "createDirectory", "prepare directory",
		suite.ArgsOf(suite.A("mode", "createDirectory"), suite.A("path", fileWriteDir)), matchers.Succeeds())
	prepare.Setup = true

	return []suite.TestCase{
		prepare,
		write("write file", "writeFile", "basic.txt", matchers.Contains(`"bytesWritten":11`),
			suite.A("content", "Hello World")),
		write("overwrite file", "writeFile", "basic.txt", matchers.Contains(`"created":false`),
			suite.A("content", "Replaced\n")),
		write("write lines", "writeLines", "lines.txt", matchers.Contains(`"linesWritten":3`),
			suite.A("lines", []interface{}{"one", "two", "three"})),
		write("append file", "appendFile", "lines.txt", matchers.Contains(`"appended":true`),
			suite.A("content", "four\n")),
		write("append lines", "appendLines", "lines.txt", matchers.Contains(`"linesWritten":2`),
			suite.A("lines", []interface{}{"five", "six"})),
		write("count lines", "countLines", "lines.txt", matchers.Contains(`"lineCount":6`)),
		write("create parent directories", "writeFile", "deep/nested/file.txt", matchers.Succeeds(),
			suite.A("content", "deep"), suite.A("createParents", true)),
		write("UTF-8 content", "writeFile", "utf8.txt", matchers.Contains(`"bytesWritten":17`),
			suite.A("content", "Hello 世界 ✓!")),
		write("empty lines", "writeLines", "empty.txt", matchers.Contains(`"linesWritten":0`),
			suite.A("lines", []interface{}{})),
		write("delete file", "deleteFile", "basic.txt", matchers.Contains(`"deleted":true`)),
	}
}
