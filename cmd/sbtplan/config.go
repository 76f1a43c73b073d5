package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/celer/vkgrt/sbt"
	"github.com/spf13/viper"
)

const (
	defaultHandleSize       = 32
	defaultHandleAlignment  = 32
	defaultBaseAlignment    = 64
	defaultScratchAlignment = 128
	defaultPoolSize         = 64 << 20
)

// LimitsConfig mirrors sbt.HardwareLimits.
type LimitsConfig struct {
	HandleSize       uint32 `mapstructure:"handle-size"`
	HandleAlignment  uint32 `mapstructure:"handle-alignment"`
	BaseAlignment    uint32 `mapstructure:"base-alignment"`
	ScratchAlignment uint32 `mapstructure:"scratch-alignment"`
}

// GroupConfig mirrors sbt.GroupSet.
type GroupConfig struct {
	Indices []uint32 `mapstructure:"indices"`
	Payload uint32   `mapstructure:"payload"`
	Reserve uint32   `mapstructure:"reserve"`
}

// GroupsConfig maps a group kind name (raygen, miss, hit, callable) to its groups.
type GroupsConfig map[string]GroupConfig

// Config is the plan read from the config file, SBTPLAN_* environment variables and flags.
type Config struct {
	Limits   LimitsConfig `mapstructure:"limits"`
	PoolSize uint64       `mapstructure:"pool-size"`
	Build    GroupsConfig `mapstructure:"build"`
	Rebuild  GroupsConfig `mapstructure:"rebuild"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("limits.handle-size", defaultHandleSize)
	v.SetDefault("limits.handle-alignment", defaultHandleAlignment)
	v.SetDefault("limits.base-alignment", defaultBaseAlignment)
	v.SetDefault("limits.scratch-alignment", defaultScratchAlignment)
	v.SetDefault("pool-size", defaultPoolSize)
}

// initConfig points v at cfgFile, or at sbtplan.yaml in the working directory when cfgFile is
// empty, and enables environment overrides.
func initConfig(v *viper.Viper, cfgFile string) error {
	setDefaults(v)

	v.SetEnvPrefix("SBTPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}

	v.SetConfigName("sbtplan")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &c, nil
}

func (c *Config) hardwareLimits() sbt.HardwareLimits {
	return sbt.HardwareLimits{
		HandleSize:       c.Limits.HandleSize,
		HandleAlignment:  c.Limits.HandleAlignment,
		BaseAlignment:    c.Limits.BaseAlignment,
		ScratchAlignment: c.Limits.ScratchAlignment,
	}
}

// descriptor converts g, rejecting unknown kind names.
func (g GroupsConfig) descriptor() (sbt.Descriptor, error) {
	var d sbt.Descriptor

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		k, err := sbt.ParseGroupKind(name)
		if err != nil {
			return d, err
		}
		gc := g[name]
		d.Groups[k] = sbt.GroupSet{
			Indices:     gc.Indices,
			PayloadSize: gc.Payload,
			Reserve:     gc.Reserve,
		}
	}
	return d, nil
}

// groupCount returns one past the highest group index used by any descriptor.
func groupCount(ds ...sbt.Descriptor) uint32 {
	var n uint32
	for _, d := range ds {
		for _, set := range d.Groups {
			for _, i := range set.Indices {
				if i+1 > n {
					n = i + 1
				}
			}
		}
	}
	return n
}
