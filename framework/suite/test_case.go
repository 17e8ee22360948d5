package suite

import (
	"fmt"

	"github.com/fastmcp4j/mcp-test-harness/framework/matchers"
)

// Kind says what a test case does with the session.
type Kind string

const (
	// KindInvoke calls the case's tool with its arguments.
	KindInvoke Kind = "invoke"
	// KindListOperations lists the host's tools; the outcome is an array of tool names.
	KindListOperations Kind = "list-operations"
	// KindListResources lists the host's resources; the outcome is an array of resource URIs.
	KindListResources Kind = "list-resources"
	// KindListPrompts lists the host's prompts; the outcome is an array of prompt names.
	KindListPrompts Kind = "list-prompts"
)

// ParseKind accepts the names above. An empty string means KindInvoke.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindInvoke, nil
	case KindInvoke, KindListOperations, KindListResources, KindListPrompts:
		return k, nil
	default:
		return "", fmt.Errorf("unknown test case kind %q", s)
	}
}

// TestCase is one parameterized invocation and the rule its outcome must satisfy.
type TestCase struct {
	Name      string
	Group     string
	Operation string
	// Tool is the name of the remote operation to call. It defaults to Operation.
	Tool   string
	Kind   Kind
	Args   Args
	Expect matchers.Expectation
	// Transports, if not empty, restricts the case to the named transports.
	Transports []string
	// Captures are saved from the outcome when the case succeeds.
	Captures []Capture
	// Setup marks a step that prepares the host for the rest of its group, such as deleting
	// state left by an earlier run. Setup steps run before the group's first selected case
	// whatever the filter says. Their outcome is logged but never reported.
	Setup bool
}

func (c TestCase) ID() CaseID {
	return CaseID{Group: c.Group, Operation: c.Operation, Name: c.Name}
}

func (c TestCase) kind() Kind {
	if c.Kind == "" {
		return KindInvoke
	}
	return c.Kind
}

func (c TestCase) tool() string {
	if c.Tool == "" {
		return c.Operation
	}
	return c.Tool
}

// AppliesTo returns false if the case is restricted to other transports.
func (c TestCase) AppliesTo(transport string) bool {
	if len(c.Transports) == 0 {
		return true
	}
	for _, t := range c.Transports {
		if t == transport {
			return true
		}
	}
	return false
}

func (c TestCase) validate() error {
	if c.Name == "" || c.Group == "" || c.Operation == "" {
		return fmt.Errorf("test case %q needs a name, a group, and an operation", c.ID())
	}
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return fmt.Errorf("test case %q: %w", c.ID(), err)
	}
	if c.Expect.String() == "" && !c.Setup {
		return fmt.Errorf("test case %q has no expectation", c.ID())
	}
	return nil
}
