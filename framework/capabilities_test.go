package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilities(t *testing.T) {
	cs := Capabilities{CapabilityTools, CapabilityPrompts}
	assert.True(t, cs.Has(CapabilityTools))
	assert.False(t, cs.Has(CapabilityResources))
	assert.Equal(t, "tools, prompts", cs.String())
	assert.Equal(t, "none", Capabilities(nil).String())
}
