package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/errors"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "REPHRASE"

// newViper builds a Viper instance with YAML file type, the REPHRASE_ env
// prefix and a "." → "_" key replacer, so "parser.endpoint" resolves to
// REPHRASE_PARSER_ENDPOINT.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, reflect.TypeOf(Config{}), "")
	return v
}

// bindEnvKeys registers every mapstructure key of t with viper.  Unmarshal
// only consults AutomaticEnv for keys viper already knows about.
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnvKeys(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges REPHRASE_* environment
// overrides, applies defaults for unset fields and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("config: failed to read config file %q", configPath))
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from REPHRASE_* environment variables alone.
//
//	REPHRASE_<SECTION>_<FIELD>   e.g.  REPHRASE_PARSER_PROVIDER, REPHRASE_CACHE_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "config: failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the reparsed Config
// whenever the file changes on disk.  A change that fails to parse or
// validate is reported to onError instead; onError may be nil.
//
// Watch is non-blocking; viper owns the watcher goroutine.
func Watch(configPath string, onChange func(*Config, fsnotify.Event), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, fmt.Sprintf("config: failed to read config file %q", configPath))
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg, e)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
