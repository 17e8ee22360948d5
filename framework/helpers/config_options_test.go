package helpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retryConfig struct {
	attempts int
	labels   []string
}

type retryOption ConfigOption[retryConfig]

func withAttempts(n int) retryOption {
	return OptionFunc[retryConfig](func(c *retryConfig) error {
		if n < 1 {
			return errors.New("attempts must be at least 1")
		}
		c.attempts = n
		return nil
	})
}

func withLabel(label string) retryOption {
	return OptionFunc[retryConfig](func(c *retryConfig) error {
		c.labels = append(c.labels, label)
		return nil
	})
}

func TestBuildConfigAppliesOptionsInOrder(t *testing.T) {
	c, err := BuildConfig(retryConfig{attempts: 5}, withLabel("a"), withAttempts(2), withLabel("b"))
	require.NoError(t, err)
	assert.Equal(t, retryConfig{attempts: 2, labels: []string{"a", "b"}}, c)
}

func TestBuildConfigWithNoOptionsReturnsDefaults(t *testing.T) {
	c, err := BuildConfig[retryConfig, retryOption](retryConfig{attempts: 5})
	require.NoError(t, err)
	assert.Equal(t, retryConfig{attempts: 5}, c)
}

func TestBuildConfigStopsAtFirstError(t *testing.T) {
	applied := false
	last := OptionFunc[retryConfig](func(*retryConfig) error {
		applied = true
		return nil
	})
	_, err := BuildConfig[retryConfig, retryOption](retryConfig{}, withAttempts(0), last)
	assert.EqualError(t, err, "attempts must be at least 1")
	assert.False(t, applied)
}
