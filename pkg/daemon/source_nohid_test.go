//go:build nohid

package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/padbatt/pkg/config"
	"github.com/charlie0129/padbatt/pkg/input"
)

func TestNewSourceWithoutHID(t *testing.T) {
	conf := config.NewFileFromConfig(nil, filepath.Join(t.TempDir(), "padbatt.json"))
	require.NoError(t, conf.SetBackend(input.BackendHIDPad))

	_, err := newSource(conf)
	assert.ErrorIs(t, err, errNoHID)
}
