package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const envPrefix = "MCPH"

// applyConfig fills in every flag that was not given on the command line from, in order of
// precedence, MCPH_* environment variables and the config file. The config file uses the flag
// names as keys; a repeatable flag may be given a list.
//
// The env file is loaded first, without overriding variables that are already set.
func applyConfig(flags *flag.FlagSet, explicit map[string]bool, configFile, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var errs []error
	flags.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] || f.Name == "config" || f.Name == "env-file" || !v.IsSet(f.Name) {
			return
		}
		for _, value := range configValues(v.Get(f.Name)) {
			if err := f.Value.Set(value); err != nil {
				errs = append(errs, fmt.Errorf("invalid value %q for %s: %w", value, f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

func configValues(value interface{}) []string {
	switch value := value.(type) {
	case []interface{}:
		ret := make([]string, 0, len(value))
		for _, item := range value {
			ret = append(ret, cast.ToString(item))
		}
		return ret
	case []string:
		return value
	default:
		return []string{cast.ToString(value)}
	}
}
