package toolsuites

import (
	"github.com/fastmcp4j/mcp-test-harness/framework"
	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
	"github.com/fastmcp4j/mcp-test-harness/framework/suite"
	"github.com/fastmcp4j/mcp-test-harness/protodef"
)

func discoveryCases(capabilities framework.Capabilities) []suite.TestCase {
	list := func(name string, kind suite.Kind, method string, expect matchers.Expectation) suite.TestCase {
		return suite.TestCase{Name: name, Group: GroupDiscovery, Operation: method, Kind: kind, Expect: expect}
	}
	ret := []suite.TestCase{
		list("tools are listed", suite.KindListOperations, protodef.MethodToolsList, matchers.CountAtLeast(1)),
		list("echo is offered", suite.KindListOperations, protodef.MethodToolsList, matchers.Contains(`"echo"`)),
	}
	if capabilities.Has(framework.CapabilityResources) {
		ret = append(ret,
			list("resources are listed", suite.KindListResources, protodef.MethodResourcesList, matchers.CountAtLeast(1)))
	}
	if capabilities.Has(framework.CapabilityPrompts) {
		ret = append(ret,
			list("prompts are listed", suite.KindListPrompts, protodef.MethodPromptsList, matchers.CountAtLeast(1)))
	}
	return ret
}
