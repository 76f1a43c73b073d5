package main

import (
	"fmt"

	"github.com/celer/vkgrt/resource"
	"github.com/celer/vkgrt/sbt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type commandline struct {
	v        *viper.Viper
	cfgFile  string
	logLevel string
	logger   *zap.Logger
}

func newRootCommand() *cobra.Command {
	cl := &commandline{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "sbtplan",
		Short: "Plan shader binding table layouts for Vulkan ray tracing",
		Long: `sbtplan lays out a shader binding table for the hardware limits and shader groups
described in a config file, using host memory in place of a GPU. It shows the record sizes,
strides, region sizes and reserve capacity a device would get, and whether a later set of
groups fits the table without reallocation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cl.v, cl.cfgFile); err != nil {
				return err
			}
			return cl.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cl.logger != nil {
				_ = cl.logger.Sync()
			}
		},
	}

	cl.configureFlags(cmd)
	cmd.AddCommand(cl.layoutCommand(), cl.fitCommand())
	return cmd
}

func (cl *commandline) configureFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cl.cfgFile, "config", "", "config file (default is ./sbtplan.yaml)")
	cmd.PersistentFlags().StringVar(&cl.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Uint32("handle-size", defaultHandleSize, "shader group handle size in bytes")
	cmd.PersistentFlags().Uint32("handle-alignment", defaultHandleAlignment, "shader group handle alignment")
	cmd.PersistentFlags().Uint32("base-alignment", defaultBaseAlignment, "shader group base alignment")
	cmd.PersistentFlags().Uint32("scratch-alignment", defaultScratchAlignment, "acceleration structure scratch offset alignment")
	cmd.PersistentFlags().Uint64("pool-size", defaultPoolSize, "host memory pool size in bytes")

	cl.v.BindPFlag("limits.handle-size", cmd.PersistentFlags().Lookup("handle-size"))
	cl.v.BindPFlag("limits.handle-alignment", cmd.PersistentFlags().Lookup("handle-alignment"))
	cl.v.BindPFlag("limits.base-alignment", cmd.PersistentFlags().Lookup("base-alignment"))
	cl.v.BindPFlag("limits.scratch-alignment", cmd.PersistentFlags().Lookup("scratch-alignment"))
	cl.v.BindPFlag("pool-size", cmd.PersistentFlags().Lookup("pool-size"))
}

func (cl *commandline) initLogger() error {
	level, err := zapcore.ParseLevel(cl.logLevel)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	cl.logger = l
	resource.SetLogger(l.Named("resource"))
	sbt.SetLogger(l.Named("sbt"))
	return nil
}

// planner builds tables on host memory with synthetic group handles.
type planner struct {
	cfg     *Config
	mem     *resource.HostMemory
	engine  *sbt.Engine
	handles *sbt.HandleCache
}

func newPlanner(cfg *Config, ds ...sbt.Descriptor) (*planner, error) {
	limits := cfg.hardwareLimits()
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	mem := resource.NewHostMemory(cfg.PoolSize)
	alloc := resource.NewAllocator(mem, resource.WithMetrics(resource.NewPrometheusMetrics("sbtplan")))
	engine, err := sbt.NewEngine(alloc, limits)
	if err != nil {
		return nil, err
	}

	handles, err := sbt.NewHandleCache(limits.HandleSize, syntheticHandles(limits.HandleSize, groupCount(ds...)))
	if err != nil {
		return nil, fmt.Errorf("synthetic handles: %w", err)
	}

	return &planner{cfg: cfg, mem: mem, engine: engine, handles: handles}, nil
}

// syntheticHandles fills the handle of group g with the byte g+1, so records are easy to spot in
// dumps.
func syntheticHandles(handleSize, count uint32) []byte {
	data := make([]byte, int(handleSize)*int(count))
	for g := 0; g < int(count); g++ {
		h := data[g*int(handleSize) : (g+1)*int(handleSize)]
		for i := range h {
			h[i] = byte(g + 1)
		}
	}
	return data
}
