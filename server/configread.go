package server

import (
	"io"
	"os"
	"strconv"

	"github.com/juju/errors"
	"github.com/peer-calls/mediatrack/server/capture"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of environment variables read by ReadConfig.
const EnvPrefix = "MEDIATRACK_"

func ReadConfigFile(filename string, c *Config) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Annotatef(err, "read config file: %s", filename)
	}

	defer f.Close()

	err = ReadConfigYAML(f, c)

	return errors.Annotatef(err, "read yaml config: %s", filename)
}

func ReadConfigFiles(filenames []string, c *Config) (err error) {
	for _, filename := range filenames {
		err = ReadConfigFile(filename, c)
		if err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

func InitConfig(c *Config) {
	c.BindPort = 3000
	c.Capture = capture.NewDefaults()
	c.Backend.Type = BackendTypeLoopback
	c.Backend.Redis.Host = "localhost"
	c.Backend.Redis.Port = 6379
	c.Backend.Redis.Prefix = "mediatrack"
}

// ReadConfig reads the defaults, then each of the files in order and then
// the environment.
func ReadConfig(filenames []string) (c Config, err error) {
	InitConfig(&c)

	if err = ReadConfigFiles(filenames, &c); err != nil {
		return c, errors.Trace(err)
	}

	err = ReadConfigFromEnv(EnvPrefix, &c)

	return c, errors.Trace(err)
}

func ReadConfigYAML(reader io.Reader, c *Config) error {
	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(c); err != nil {
		return errors.Annotatef(err, "decode yaml")
	}

	return nil
}

func ReadConfigFromEnv(prefix string, c *Config) error {
	setEnvString(&c.BindHost, prefix+"BIND_HOST")
	setEnvInt(&c.BindPort, prefix+"BIND_PORT")
	setEnvString(&c.TLS.Cert, prefix+"TLS_CERT")
	setEnvString(&c.TLS.Key, prefix+"TLS_KEY")
	setEnvString(&c.AccessToken, prefix+"ACCESS_TOKEN")

	setEnvCaptureTarget(&c.Capture.CaptureTarget, prefix+"CAPTURE_TARGET")
	setEnvInt(&c.Capture.MaxSize, prefix+"CAPTURE_MAX_SIZE")
	setEnvFloat(&c.Capture.MaxJPEGQuality, prefix+"CAPTURE_MAX_JPEG_QUALITY")

	if err := setEnvFlashMode(&c.Capture.FlashMode, prefix+"CAPTURE_FLASH_MODE"); err != nil {
		return errors.Trace(err)
	}

	setEnvBackendType(&c.Backend.Type, prefix+"BACKEND_TYPE")
	setEnvString(&c.Backend.Loopback.Dir, prefix+"BACKEND_LOOPBACK_DIR")
	setEnvString(&c.Backend.Loopback.TempDir, prefix+"BACKEND_LOOPBACK_TEMP_DIR")
	setEnvString(&c.Backend.Redis.Host, prefix+"BACKEND_REDIS_HOST")
	setEnvInt(&c.Backend.Redis.Port, prefix+"BACKEND_REDIS_PORT")
	setEnvString(&c.Backend.Redis.Prefix, prefix+"BACKEND_REDIS_PREFIX")

	return nil
}

func setEnvString(dest *string, name string) {
	value := os.Getenv(name)
	if value != "" {
		*dest = value
	}
}

func setEnvInt(dest *int, name string) {
	value, err := strconv.Atoi(os.Getenv(name))
	if err == nil {
		*dest = value
	}
}

func setEnvFloat(dest *float64, name string) {
	value, err := strconv.ParseFloat(os.Getenv(name), 64)
	if err == nil {
		*dest = value
	}
}

func setEnvCaptureTarget(dest *capture.Target, name string) {
	value := os.Getenv(name)
	if value != "" {
		*dest = capture.Target(value)
	}
}

func setEnvFlashMode(dest *capture.FlashMode, name string) error {
	value := os.Getenv(name)
	if value == "" {
		return nil
	}

	mode, err := capture.ParseFlashMode(value)
	if err != nil {
		return errors.Annotatef(err, "env: %s", name)
	}

	*dest = mode

	return nil
}

func setEnvBackendType(backendType *BackendType, name string) {
	value := os.Getenv(name)
	switch BackendType(value) {
	case BackendTypeLoopback:
		*backendType = BackendTypeLoopback
	case BackendTypeRedis:
		*backendType = BackendTypeRedis
	}
}
