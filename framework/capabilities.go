package framework

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Capability groups a host may declare in its handshake.
const (
	CapabilityTools     = "tools"
	CapabilityResources = "resources"
	CapabilityPrompts   = "prompts"
	CapabilityLogging   = "logging"
)

// Capabilities lists the capability groups a tool host declared, in the order it sent them.
type Capabilities []string

func (cs Capabilities) Has(name string) bool { return slices.Contains(cs, name) }

func (cs Capabilities) String() string {
	if len(cs) == 0 {
		return "none"
	}
	return strings.Join(cs, ", ")
}
