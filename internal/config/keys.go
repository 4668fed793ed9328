package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "backend.base_url", typ: kString, env: "DEVFOLIO_BACKEND_URL",
		apply:   func(cfg *Config, v any) { cfg.Backend.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.BaseURL },
	},
	{
		key: "backend.timeout", typ: kString, env: "DEVFOLIO_BACKEND_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Backend.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Timeout },
	},
	{
		key: "session.token", typ: kString, env: "DEVFOLIO_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Session.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Token },
	},
	{
		key: "view.tag_limit", typ: kInt, env: "DEVFOLIO_VIEW_TAG_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.View.TagLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.View.TagLimit },
	},
	{
		key: "view.description_limit", typ: kInt, env: "DEVFOLIO_VIEW_DESCRIPTION_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.View.DescriptionLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.View.DescriptionLimit },
	},
	{
		key: "view.web_url", typ: kString, env: "DEVFOLIO_VIEW_WEB_URL",
		apply:   func(cfg *Config, v any) { cfg.View.WebURL = v.(string) },
		extract: func(cfg Config) any { return cfg.View.WebURL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "DEVFOLIO_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "DEVFOLIO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "mock.port", typ: kInt, env: "DEVFOLIO_MOCK_PORT",
		apply:   func(cfg *Config, v any) { cfg.Mock.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Mock.Port },
	},
	{
		key: "mock.secret", typ: kString, env: "DEVFOLIO_MOCK_SECRET",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Mock.Secret = v.(string) },
		extract: func(cfg Config) any { return cfg.Mock.Secret },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
