// Package dgconfig loads engine-wide configuration: a viper-backed YAML
// file resolved via go-homedir, overridable by environment variables and,
// for dgctl, Cobra flags.
package dgconfig

import (
	"fmt"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/evalgraph/detectorgraph/dglog"
)

// Options configures one ProcessorContainer's ambient behavior: logging
// level/format and whether topics run in bounded LITE storage mode.
//
// StaticAsserts and PerfectForwarding exist purely for parity with the
// source system's compile-time toggles; Go has no analogous mechanism
// (no non-type template parameters, no reference-collapsing forwarding),
// so both are carried as inert flags rather than implemented.
type Options struct {
	LogLevel          dglog.Level
	LogFormat         string
	Lite              bool
	LiteCapacity      int
	StaticAsserts     bool
	PerfectForwarding bool
}

// Default returns the engine's out-of-the-box configuration.
func Default() Options {
	return Options{
		LogLevel:          dglog.LevelInfo,
		LogFormat:         "text",
		Lite:              false,
		LiteCapacity:      0,
		StaticAsserts:     true,
		PerfectForwarding: true,
	}
}

// configFileName is the YAML file dgconfig searches $HOME for.
const configFileName = ".detectorgraphrc"

// Load resolves Options from, in ascending precedence: defaults, a
// $HOME/.detectorgraphrc.yaml file (or the file at cfgFile, if non-empty),
// then DETECTORGRAPH_-prefixed environment variables.
func Load(cfgFile string) (Options, error) {
	v := viper.New()
	v.SetDefault("log_level", string(dglog.LevelInfo))
	v.SetDefault("log_format", "text")
	v.SetDefault("lite", false)
	v.SetDefault("lite_capacity", 0)
	v.SetDefault("static_asserts", true)
	v.SetDefault("perfect_forwarding", true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(configFileName)
	}

	v.SetEnvPrefix("DETECTORGRAPH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Options{}, fmt.Errorf("dgconfig: reading config: %w", err)
		}
	}

	return Options{
		LogLevel:          dglog.Level(v.GetString("log_level")),
		LogFormat:         v.GetString("log_format"),
		Lite:              v.GetBool("lite"),
		LiteCapacity:      v.GetInt("lite_capacity"),
		StaticAsserts:     v.GetBool("static_asserts"),
		PerfectForwarding: v.GetBool("perfect_forwarding"),
	}, nil
}
