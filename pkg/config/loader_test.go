package config_test

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/integrations/pkg/config"
)

type defaultsConfig struct {
	Driver  string `env:"CFGTEST_DEFAULT_DRIVER" envDefault:"s3"`
	MaxSize int64  `env:"CFGTEST_DEFAULT_MAX_SIZE" envDefault:"10485760"`
	Verify  bool   `env:"CFGTEST_DEFAULT_VERIFY" envDefault:"false"`
}

type singletonConfig struct {
	Value string `env:"CFGTEST_SINGLETON" envDefault:"default"`
}

type requiredConfig struct {
	Token string `env:"CFGTEST_REQUIRED_TOKEN,required"`
}

type storageConfig struct {
	Driver string `env:"CFGTEST_STORAGE_DRIVER" envDefault:"s3"`
}

func (c *storageConfig) Validate() error {
	switch c.Driver {
	case "s3", "minio", "local":
		return nil
	}
	return errors.New("unknown storage driver " + c.Driver)
}

type fileConfig struct {
	Driver   string `env:"CFGTEST_DRIVER"`
	Bucket   string `env:"CFGTEST_BUCKET"`
	MaxSize  int64  `env:"CFGTEST_MAX_SIZE"`
	Priority string `env:"CFGTEST_PRIORITY"`
	Quoted   string `env:"CFGTEST_ONLY_OVERRIDE"`
}

func TestLoad_DefaultValues(t *testing.T) {
	config.ResetCache()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "s3", cfg.Driver)
	assert.Equal(t, int64(10485760), cfg.MaxSize)
	assert.False(t, cfg.Verify)
}

func TestLoad_CachesPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_SINGLETON", "first")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFGTEST_SINGLETON", "second")

	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	var reloaded singletonConfig
	require.NoError(t, config.ForceReload(&reloaded))
	assert.Equal(t, "second", reloaded.Value)
}

func TestLoad_Concurrent(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_SINGLETON", "shared")

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var cfg singletonConfig
			if err := config.Load(&cfg); err == nil {
				results[i] = cfg.Value
			}
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, "shared", v)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("CFGTEST_REQUIRED_TOKEN")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	// A failed parse is not cached, so fixing the environment is enough.
	t.Setenv("CFGTEST_REQUIRED_TOKEN", "secret")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "secret", cfg.Token)
}

func TestLoad_Validate(t *testing.T) {
	config.ResetCache()
	t.Setenv("CFGTEST_STORAGE_DRIVER", "ftp")

	var cfg storageConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "unknown storage driver ftp")

	t.Setenv("CFGTEST_STORAGE_DRIVER", "local")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "local", cfg.Driver)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *defaultsConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestMustLoad(t *testing.T) {
	config.ResetCache()
	os.Unsetenv("CFGTEST_REQUIRED_TOKEN")

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
	assert.NotPanics(t, func() {
		var cfg defaultsConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	unset := func() {
		for _, k := range []string{"CFGTEST_DRIVER", "CFGTEST_BUCKET", "CFGTEST_MAX_SIZE", "CFGTEST_PRIORITY", "CFGTEST_ONLY_OVERRIDE"} {
			os.Unsetenv(k)
		}
	}

	t.Run("single file", func(t *testing.T) {
		unset()
		t.Cleanup(unset)
		config.ResetCache()

		require.NoError(t, config.LoadEnv("testdata/.env.base"))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "minio", cfg.Driver)
		assert.Equal(t, "uploads", cfg.Bucket)
		assert.Equal(t, int64(1048576), cfg.MaxSize)
		assert.Equal(t, "base", cfg.Priority)
	})

	t.Run("later files override", func(t *testing.T) {
		unset()
		t.Cleanup(unset)
		config.ResetCache()

		require.NoError(t, config.LoadEnv("testdata/.env.base", "testdata/.env.override"))

		var cfg fileConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "override", cfg.Priority)
		assert.Equal(t, "quoted value", cfg.Quoted)
		assert.Equal(t, "uploads", cfg.Bucket)
	})

	t.Run("missing file", func(t *testing.T) {
		err := config.LoadEnv("testdata/does-not-exist.env")
		assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
		assert.Panics(t, func() { config.MustLoadEnv("testdata/does-not-exist.env") })
	})
}
