package server_test

import (
	"os"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	defer test.UnsetEnvPrefix(server.EnvPrefix)

	c, err := server.ReadConfig([]string{})
	assert.Nil(t, err, "error reading config")
	assert.Equal(t, 3000, c.BindPort)
	assert.Equal(t, capture.NewDefaults(), c.Capture)
	assert.Equal(t, server.BackendTypeLoopback, c.Backend.Type)
	assert.Equal(t, "mediatrack", c.Backend.Redis.Prefix)
}

func TestReadConfigFiles(t *testing.T) {
	var c server.Config

	server.InitConfig(&c)

	err := server.ReadConfigFiles([]string{"config_example.yml"}, &c)
	assert.Nil(t, err, "Error should be nil")
	assert.Equal(t, "127.0.0.1", c.BindHost)
	assert.Equal(t, 3001, c.BindPort)
	assert.Equal(t, "test.pem", c.TLS.Cert)
	assert.Equal(t, "test.key", c.TLS.Key)
	assert.Equal(t, "secret", c.AccessToken)
	assert.Equal(t, capture.Defaults{
		CaptureTarget:  capture.TargetDisk,
		MaxSize:        1280,
		MaxJPEGQuality: 0.9,
		FlashMode:      capture.FlashModeOn,
	}, c.Capture)
	assert.Equal(t, server.BackendTypeRedis, c.Backend.Type)
	assert.Equal(t, "/var/lib/mediatrack", c.Backend.Loopback.Dir)
	assert.Equal(t, "", c.Backend.Loopback.TempDir)
	assert.Equal(t, "redis.local", c.Backend.Redis.Host)
	assert.Equal(t, 6380, c.Backend.Redis.Port)
	assert.Equal(t, "tracks", c.Backend.Redis.Prefix)
}

func TestReadConfigFiles_Error(t *testing.T) {
	var c server.Config
	err := server.ReadConfigFiles([]string{"config_missing.yml"}, &c)
	require.NotNil(t, err, "error should be defined")
	assert.Regexp(t, "no such file", err.Error())
}

func TestReadYAML_error(t *testing.T) {
	reader := strings.NewReader("gfakjhglakjhlakdhgl")

	var c server.Config

	err := server.ReadConfigYAML(reader, &c)
	require.NotNil(t, err, "err should be defined")
	assert.Regexp(t, "decode yaml", err.Error())
}

func TestReadFromEnv(t *testing.T) {
	prefix := "MEDIATRACKTEST_"
	defer test.UnsetEnvPrefix(prefix)
	os.Setenv(prefix+"BIND_HOST", "0.0.0.0")
	os.Setenv(prefix+"BIND_PORT", "8080")
	os.Setenv(prefix+"TLS_CERT", "test.pem")
	os.Setenv(prefix+"TLS_KEY", "test.key")
	os.Setenv(prefix+"ACCESS_TOKEN", "token")
	os.Setenv(prefix+"CAPTURE_TARGET", "memory")
	os.Setenv(prefix+"CAPTURE_MAX_SIZE", "640")
	os.Setenv(prefix+"CAPTURE_MAX_JPEG_QUALITY", "0.25")
	os.Setenv(prefix+"CAPTURE_FLASH_MODE", "on")
	os.Setenv(prefix+"BACKEND_TYPE", "redis")
	os.Setenv(prefix+"BACKEND_LOOPBACK_DIR", "/photos")
	os.Setenv(prefix+"BACKEND_LOOPBACK_TEMP_DIR", "/tmp/photos")
	os.Setenv(prefix+"BACKEND_REDIS_HOST", "redis")
	os.Setenv(prefix+"BACKEND_REDIS_PORT", "6380")
	os.Setenv(prefix+"BACKEND_REDIS_PREFIX", "mt")

	var c server.Config

	server.InitConfig(&c)

	err := server.ReadConfigFromEnv(prefix, &c)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", c.BindHost)
	assert.Equal(t, 8080, c.BindPort)
	assert.Equal(t, "test.pem", c.TLS.Cert)
	assert.Equal(t, "test.key", c.TLS.Key)
	assert.Equal(t, "token", c.AccessToken)
	assert.Equal(t, capture.Defaults{
		CaptureTarget:  capture.TargetMemory,
		MaxSize:        640,
		MaxJPEGQuality: 0.25,
		FlashMode:      capture.FlashModeOn,
	}, c.Capture)
	assert.Equal(t, server.BackendTypeRedis, c.Backend.Type)
	assert.Equal(t, "/photos", c.Backend.Loopback.Dir)
	assert.Equal(t, "/tmp/photos", c.Backend.Loopback.TempDir)
	assert.Equal(t, "redis", c.Backend.Redis.Host)
	assert.Equal(t, 6380, c.Backend.Redis.Port)
	assert.Equal(t, "mt", c.Backend.Redis.Prefix)
}

func TestReadFromEnv_invalidFlashMode(t *testing.T) {
	prefix := "MEDIATRACKTEST_"
	defer test.UnsetEnvPrefix(prefix)
	os.Setenv(prefix+"CAPTURE_FLASH_MODE", "torch")

	var c server.Config

	err := server.ReadConfigFromEnv(prefix, &c)
	assert.True(t, errors.IsNotValid(err), "unexpected error: %s", err)
}

func TestReadFromEnv_backendTypeIgnoredWhenUnknown(t *testing.T) {
	prefix := "MEDIATRACKTEST_"
	defer test.UnsetEnvPrefix(prefix)
	os.Setenv(prefix+"BACKEND_TYPE", "carrier-pigeon")

	var c server.Config

	server.InitConfig(&c)

	require.NoError(t, server.ReadConfigFromEnv(prefix, &c))
	assert.Equal(t, server.BackendTypeLoopback, c.Backend.Type)
}
