package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server"
	"github.com/peer-calls/mediatrack/server/capture"
	"github.com/peer-calls/mediatrack/server/cli"
	"github.com/peer-calls/mediatrack/server/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v2"
)

func exec(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCommand(cli.Props{
		Log:     test.NewLogger(),
		Version: "v1.2.3",
	})
	cmd.SetOutput(&stdout, &stderr)

	err := cmd.Exec(context.Background(), args)

	return stdout.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()

	test.UnsetEnvPrefix(server.EnvPrefix)
	t.Cleanup(func() {
		test.UnsetEnvPrefix(server.EnvPrefix)
	})

	dir := t.TempDir()

	os.Setenv(server.EnvPrefix+"BACKEND_LOOPBACK_DIR", dir)
	os.Setenv(server.EnvPrefix+"BACKEND_LOOPBACK_TEMP_DIR", dir)

	return dir
}

func TestVersion(t *testing.T) {
	out, err := exec(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mediatrack v1.2.3\n", out)
}

func TestDefaults(t *testing.T) {
	setupEnv(t)
	os.Setenv(server.EnvPrefix+"CAPTURE_MAX_SIZE", "640")
	os.Setenv(server.EnvPrefix+"CAPTURE_FLASH_MODE", "on")

	out, err := exec(t, "defaults")
	require.NoError(t, err)

	var defaults capture.Defaults

	require.NoError(t, yaml.Unmarshal([]byte(out), &defaults))

	want := capture.NewDefaults()
	want.MaxSize = 640
	want.FlashMode = capture.FlashModeOn

	assert.Equal(t, want, defaults)
}

func TestDefaults_missingConfig(t *testing.T) {
	setupEnv(t)

	_, err := exec(t, "defaults", "-c", "/missing/file.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestCapture_memory(t *testing.T) {
	defer goleak.VerifyNone(t)

	setupEnv(t)

	out, err := exec(t, "capture", "--target", "memory", "--max-size", "64", "--quality", "0.5", "--flash", "on")
	require.NoError(t, err)

	_, err = base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	assert.NoError(t, err)
}

func TestCapture_disk(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := setupEnv(t)

	out, err := exec(t, "capture", "--target", "disk", "--max-size", "64")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "file", u.Scheme)
	assert.True(t, strings.HasPrefix(u.Path, dir), "expected %s in %s", u.Path, dir)

	_, err = os.Stat(u.Path)
	assert.NoError(t, err)
}

func TestCapture_invalidTarget(t *testing.T) {
	defer goleak.VerifyNone(t)

	setupEnv(t)

	_, err := exec(t, "capture", "--target", "nowhere")
	assert.Equal(t, capture.ErrInvalidCaptureTarget, errors.Cause(err))
}

func TestCapture_invalidFlash(t *testing.T) {
	defer goleak.VerifyNone(t)

	setupEnv(t)

	_, err := exec(t, "capture", "--flash", "strobe")
	assert.True(t, errors.IsNotValid(err))
}

func TestUnknownCommand(t *testing.T) {
	_, err := exec(t, "record")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "command not found")
}

func TestDefaultCommand_flagsGoToServe(t *testing.T) {
	setupEnv(t)

	// The missing config proves that -c was parsed by serve.
	_, err := exec(t, "-c", "/missing/file.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
