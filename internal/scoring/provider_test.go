package scoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_MissingFileIsDemoMode(t *testing.T) {
	p := NewProvider(ProviderConfig{ModelPath: filepath.Join(t.TempDir(), "absent.json")}, zerolog.Nop())

	status, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, ModeDemo, status.Mode)
	assert.Nil(t, p.Current())
}

func TestProvider_NoConfigIsDemoMode(t *testing.T) {
	p := NewProvider(ProviderConfig{}, zerolog.Nop())

	status, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, ModeDemo, status.Mode)
	assert.Nil(t, p.Current())
}

func TestProvider_LoadAndReload(t *testing.T) {
	path := writeModel(t, testDocument(KindLogistic))
	p := NewProvider(ProviderConfig{ModelPath: path}, zerolog.Nop())

	status, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, ModeFile, status.Mode)
	assert.Equal(t, "logistic-test", status.ModelVersion)
	require.NotNil(t, status.LoadedAt)
	require.NotNil(t, p.Current())

	next := testDocument(KindLinear)
	next.Version = "linear-v2"
	raw := mustJSON(t, next)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	status, err = p.Reload()
	require.NoError(t, err)
	assert.Equal(t, "linear-v2", status.ModelVersion)
	assert.Equal(t, "linear-v2", p.Current().ModelVersion())
}

func TestProvider_BadReloadKeepsPrevious(t *testing.T) {
	path := writeModel(t, testDocument(KindLogistic))
	p := NewProvider(ProviderConfig{ModelPath: path}, zerolog.Nop())
	_, err := p.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"linear"}`), 0o600))

	status, err := p.Reload()
	assert.ErrorIs(t, err, ErrInvalidModel)
	assert.Equal(t, "logistic-test", status.ModelVersion)
	assert.Equal(t, "logistic-test", p.Current().ModelVersion())
}

func TestProvider_RemoteTakesPrecedence(t *testing.T) {
	p := NewProvider(ProviderConfig{
		ModelPath:     writeModel(t, testDocument(KindLogistic)),
		RemoteURL:     "http://inference.local:9000",
		RemoteTimeout: time.Second,
	}, zerolog.Nop())

	status, err := p.Load()
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, status.Mode)
	assert.IsType(t, &RemoteScorer{}, p.Current())
}
