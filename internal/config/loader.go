package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PISTE_"

// sections lists the nested keys so PISTE_SYNC_NATS_URL maps onto
// sync.nats_url while PISTE_DB_PATH stays flat.
var sections = []string{"sync", "metrics"}

// DotenvFile is read from the working directory, when present, before env
// vars are applied. Variables already set in the process win.
const DotenvFile = ".env"

// Load builds a Config by layering defaults, an optional YAML file and env
// vars, in increasing precedence. path wins over PISTE_CONFIG.
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	if err := godotenv.Load(DotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotenvFile, err)
	}

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	for _, sec := range sections {
		if strings.HasPrefix(s, sec+"_") {
			return sec + "." + strings.TrimPrefix(s, sec+"_")
		}
	}
	return s
}
