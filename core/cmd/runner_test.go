package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/kennelbot/core/config"
	coretelegram "github.com/m3rciful/kennelbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type stubApp struct {
	started, stopped bool
}

func (a *stubApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error { a.started = true; return nil },
		OnStop:  func(context.Context, coretelegram.Runtime) error { a.stopped = true; return nil },
	}, nil
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))
	t.Setenv("KENNEL_TEST_CONFIG", "")

	p, err := ResolveConfigPath(Options{ConfigPath: "explicit.yaml", ConfigEnvVar: "KENNEL_TEST_CONFIG"})
	require.NoError(t, err)
	assert.Equal(t, "explicit.yaml", p)

	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KENNEL_TEST_CONFIG", DefaultConfigPath: existing})
	require.NoError(t, err)
	assert.Equal(t, existing, p)

	missing := filepath.Join(dir, "missing.yaml")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KENNEL_TEST_CONFIG", DefaultConfigPath: missing, AllowNoConfigFile: true})
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KENNEL_TEST_CONFIG", DefaultConfigPath: missing})
	require.NoError(t, err)
	assert.Equal(t, missing, p)

	_, err = ResolveConfigPath(Options{ConfigEnvVar: "KENNEL_TEST_CONFIG"})
	require.Error(t, err)

	t.Setenv("KENNEL_TEST_CONFIG", "from-env.yaml")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "KENNEL_TEST_CONFIG", DefaultConfigPath: existing})
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", p)
}

func TestRunWiresLifecycleHooks(t *testing.T) {
	app := &stubApp{}
	var ran bool
	err := Run(Options{
		ConfigPath:     "unused.yaml",
		LoadConfig:     func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			ran = true
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, app.started)
	assert.True(t, app.stopped)
}

func TestRunBootstrapFailure(t *testing.T) {
	boom := errors.New("db down")
	err := Run(Options{
		ConfigPath:     "unused.yaml",
		LoadConfig:     func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:      func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
		ShutdownLogger: func() error { return nil },
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunRequiresLoaders(t *testing.T) {
	require.Error(t, Run(Options{}))
	require.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}
