package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultServiceName = "books"
	DefaultHTTPAddr    = ":3000"
	DefaultLogLevel    = "info"
)

type Config struct {
	ServiceName string     `toml:"serviceName"`
	HTTPAddr    string     `toml:"httpAddr"`
	LogLevel    string     `toml:"logLevel"`
	RequestLog  RequestLog `toml:"requestLog"`
}

// RequestLog holds the request logger options. Empty values are resolved by
// the logger itself.
type RequestLog struct {
	LogFilePath string `toml:"logFilePath"`
	Format      string `toml:"format"`
}

// Default returns the configuration used when no file is present. The PORT
// environment variable, when set, selects the listen port.
func Default() Config {
	cfg := Config{
		ServiceName: DefaultServiceName,
		HTTPAddr:    DefaultHTTPAddr,
		LogLevel:    DefaultLogLevel,
	}
	applyEnv(&cfg)

	return cfg
}

// Load decodes the TOML file at path over the defaults. A missing file is not
// an error; found reports whether the file existed. PORT takes precedence over
// the httpAddr key.
func Load(path string) (cfg Config, found bool, err error) {
	cfg = Default()

	_, err = toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, false, nil
	}
	if err != nil {
		return Config{}, true, err
	}
	applyEnv(&cfg)

	return cfg, true, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + strings.TrimPrefix(port, ":")
	}
}
