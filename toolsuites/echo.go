package toolsuites

import (
	"strings"

	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
	"github.com/fastmcp4j/mcp-test-harness/framework/transport"
)

func echoCases() []suite.TestCase {
	echo := func(name, message string) suite.TestCase {
		return invoke(GroupEcho, "echo", "echo", name,
			suite.ArgsOf(suite.A("message", message)), matchers.Contains(message))
	}
	ret := []suite.TestCase{
		echo("Simple message", "Hello, World!"),
		echo("Empty string", ""),
		echo("Special characters", `!@#$%^&*()_+-=[]{}|;':",./<>?`),
		echo("Unicode", "Hello 世界 こんにちは"),
		echo("Emojis", " 😀 😃 😄 😁 🎉 🏆"),
		echo("Numbers", "12345 6.789 -42"),
		echo("SQL query", "SELECT * FROM users WHERE id=1"),
		echo("JSON", `{"key": "value", "number": 123}`),
		echo("Long message", strings.Repeat("A", 500)),
		echo("Multiline", "Line 1\nLine 2\nLine 3"),
	}

	headers := invoke(GroupEcho, "echo", "echo", "Request headers",
		suite.ArgsOf(suite.A("message", "headers")), matchers.Contains("Headers:"))
	headers.Transports = []string{string(transport.KindSSE), string(transport.KindStreamable)}
	return append(ret, headers)
}
