package toolsuites

import (
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
)

const fileReadDir = "mcp-test-temp/fileread"

var sampleSource = strings.Join([]string{
	"package demo;",
	"",
	"import java.util.List;",
	"import java.util.Map;",
	"import java.util.Optional;",
	"import java.util.function.Function;",
	"import java.io.IOException;",
	"import java.nio.file.Path;",
	"// TODO: support streaming results",
	"public class Sample {",
	"    // Built on FastMCP",
	"    public int size() { return 0; }",
	"}",
	"",
}, "\n")

const sampleNotes = "# Notes\n\nThe harness reads this file.\n"

func fileReadCases() []suite.TestCase {
	sample := fileReadDir + "/Sample.java"
	seed := func(file, content string) suite.TestCase {
		c := invoke(GroupFileRead, "filewrite", "writeFile", "write "+file,
			suite.ArgsOf(
				suite.A("mode", "writeFile"),
				suite.A("path", fileReadDir+"/"+file),
				suite.A("content", content),
				suite.A("createParents", true),
			), matchers.Succeeds())
		c.Setup = true
		return c
	}
	read := func(name, mode string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		all := append([]suite.Arg{suite.A("mode", mode)}, args...)
		return invoke(GroupFileRead, "fileread", mode, name, suite.ArgsOf(all...), expect)
	}
	grep := func(name string, expect matchers.Expectation, args ...suite.Arg) suite.TestCase {
		return read(name, "grep", expect, append([]suite.Arg{suite.A("searchPath", fileReadDir)}, args...)...)
	}

	return []suite.TestCase{
		seed("Sample.java", sampleSource),
		seed("notes.md", sampleNotes),
		read("file stats", "getStats", matchers.Contains(`"type":"file"`).And(matchers.Contains(`"lineCount":13`)),
			suite.A("path", sample)),
		read("read file", "readFile", matchers.Contains("public class Sample"),
			suite.A("path", sample)),
		read("read lines", "readLines", matchers.Contains("java.util.List").And(matchers.DoesNotContain("Optional")),
			suite.A("path", sample), suite.A("startLine", 1), suite.A("endLine", 4)),
		grep("grep files with matches", matchers.Contains("Sample.java").And(matchers.DoesNotContain("notes.md")),
			suite.A("pattern", "TODO"), suite.A("outputMode", "files_with_matches")),
		grep("grep content", matchers.Contains("java.util.List").And(matchers.Contains(`"totalMatches":6`)),
			suite.A("pattern", "^import"), suite.A("outputMode", "content")),
		grep("grep case insensitive", matchers.Contains("Built on FastMCP"),
			suite.A("pattern", "fastmcp"), suite.A("caseInsensitive", true)),
		grep("grep with context", matchers.Contains(`"before":["// TODO: support streaming results"]`),
			suite.A("pattern", "class Sample"), suite.A("linesBefore", 1), suite.A("linesAfter", 1)),
		grep("grep max matches", matchers.Contains(`"truncated":true`),
			suite.A("pattern", "^import"), suite.A("maxMatches", 5)),
		read("directory stats", "getStats", matchers.Contains(`"type":"directory"`).And(matchers.Contains(`"fileCount":2`)),
			suite.A("path", fileReadDir)),
		grep("grep count", matchers.Contains(`"count":6`),
			suite.A("pattern", "^import"), suite.A("outputMode", "count")),
	}
}
