package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/structkit/pkg/api"
	"github.com/ssargent/structkit/pkg/config"
)

type fakeStarter struct{ config api.ServerConfig }

func (f *fakeStarter) StartServer(_ context.Context, _ api.SchemaCatalog, _ api.FrameStore, cfg api.ServerConfig) error {
	f.config = cfg
	return nil
}

type fakeFactory struct{ starter *fakeStarter }

func (f fakeFactory) CreateServerStarter() api.ServerStarter { return f.starter }

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.SchemaDir = filepath.Join(dir, "schemas")
	cfg.Codec.DefaultCharset = "gbk"
	return cfg
}

func TestContainer_Components(t *testing.T) {
	c := NewContainer()
	c.Configure(testConfig(t), zerolog.Nop())
	defer c.Close()

	catalog := c.Catalog()
	assert.Same(t, catalog, c.Catalog())
	assert.Equal(t, c.Config().SchemaDir, catalog.Dir())

	frames, err := c.FrameStore()
	require.NoError(t, err)
	id, err := frames.Put("telemetry", []byte{1, 2, 3})
	require.NoError(t, err)

	framesAgain, err := c.FrameStore()
	require.NoError(t, err)
	assert.Same(t, frames, framesAgain)

	require.NoError(t, c.Close())

	reopened, err := c.FrameStore()
	require.NoError(t, err)
	frame, err := reopened.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, frame.Envelope.Payload)
}

func TestContainer_ServerFactory(t *testing.T) {
	c := NewContainer()
	assert.NotNil(t, c.GetServerFactory())

	starter := &fakeStarter{}
	c.SetServerFactory(fakeFactory{starter: starter})

	err := c.GetServerFactory().CreateServerStarter().StartServer(context.Background(), nil, nil, api.ServerConfig{Port: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, starter.config.Port)
}

func TestContainer_CloseWithoutComponents(t *testing.T) {
	assert.NoError(t, NewContainer().Close())
}
