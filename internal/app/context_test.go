package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpm/internal/config"
)

func TestResolveProfileFallsBackToBuiltin(t *testing.T) {
	p, src, err := ResolveProfile(t.TempDir(), "", "")
	require.NoError(t, err)
	assert.Equal(t, SourceBuiltin, src)
	assert.Equal(t, config.ProfileDetailed, p.Name)

	p, _, err = ResolveProfile(t.TempDir(), "", config.ProfileClassic)
	require.NoError(t, err)
	assert.Equal(t, 50, p.BatchSize)
}

func TestResolveProfilePrefersWorkspaceThenFile(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := config.GenerateDefault(config.ProfileClassic)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.Path(dir), []byte(tmpl), 0o644))

	p, src, err := ResolveProfile(dir, "", config.ProfileDetailed)
	require.NoError(t, err)
	assert.Equal(t, SourceWorkspace, src)
	assert.Equal(t, config.ProfileClassic, p.Name)

	explicit := filepath.Join(dir, "other.yml")
	detailed, err := config.GenerateDefault(config.ProfileDetailed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(explicit, []byte(detailed), 0o644))
	p, src, err = ResolveProfile(dir, explicit, "")
	require.NoError(t, err)
	assert.Equal(t, SourceFile, src)
	assert.Equal(t, config.ProfileDetailed, p.Name)
}

func TestResolveProfileReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("name: broken\nthresholds: {high: 0.2, medium: 0.5}\n"), 0o644))
	_, _, err := ResolveProfile(dir, "", "")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, _, err = ResolveProfile(t.TempDir(), "", "nope")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
