package config

import (
	"net/url"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env   string `env:"ENV" env-required:"true"`
	HTTP  HTTPConfig
	Mongo MongoConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-required:"true"`
	Database       string        `env:"MONGO_DATABASE" env-default:"taskboard"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"MONGO_PING_TIMEOUT" env-default:"10s"`
}

// MaskedURI returns the connection string with credentials redacted,
// safe to put in logs.
func (c MongoConfig) MaskedURI() string {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "(unparseable uri)"
	}
	return u.Redacted()
}
