package config

import "github.com/ilyakaznacheev/cleanenv"

// Reader builds a Config from some source. The process only ever uses
// EnvReader; the interface exists so tests can inject fixed configs.
type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
