package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOptionsKeepsConfiguredTimeout(t *testing.T) {
	opts := normalizeOptions(&Options{Timeout: 90 * time.Second})
	assert.Equal(t, 90*time.Second, opts.Timeout)
}

func TestNormalizeOptionsDefaultsZeroTimeout(t *testing.T) {
	opts := normalizeOptions(&Options{})
	assert.Equal(t, DefaultOptions().Timeout, opts.Timeout)

	opts = normalizeOptions(nil)
	assert.Equal(t, DefaultOptions().Timeout, opts.Timeout)
}
