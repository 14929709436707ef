package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUse(t *testing.T) {
	t.Cleanup(func() { _ = Use("default") })

	for _, name := range []string{"", "default", "charm", "dracula", "catppuccin", "base16"} {
		assert.NoError(t, Use(name), name)
		assert.NotNil(t, Form())
	}

	assert.Error(t, Use("solarized"))
}
