package server

import (
	"github.com/peer-calls/mediatrack/server/capture"
)

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type BackendType string

const (
	BackendTypeLoopback BackendType = "loopback"
	BackendTypeRedis    BackendType = "redis"
)

type RedisConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Prefix string `yaml:"prefix"`
}

type LoopbackConfig struct {
	Dir     string `yaml:"dir"`
	TempDir string `yaml:"temp_dir"`
}

type BackendConfig struct {
	Type     BackendType    `yaml:"type"`
	Loopback LoopbackConfig `yaml:"loopback"`
	Redis    RedisConfig    `yaml:"redis"`
}

type Config struct {
	BindHost string    `yaml:"bind_host"`
	BindPort int       `yaml:"bind_port"`
	TLS      TLSConfig `yaml:"tls"`
	// AccessToken guards /metrics and the capture defaults override. When
	// empty both are disabled.
	AccessToken string           `yaml:"access_token"`
	Capture     capture.Defaults `yaml:"capture"`
	Backend     BackendConfig    `yaml:"backend"`
}
