package main

import (
	"fmt"

	"github.com/celer/vkgrt/sbt"
	"github.com/spf13/cobra"
)

func (cl *commandline) fitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fit",
		Short: "Check whether the rebuild section fits the table built from the build section",
		Long: `fit builds the table described by the build section, then checks whether the groups of
the rebuild section fit the buffers of that table. When they fit, the table is rebuilt in place
and its new layout printed. Otherwise fit fails and the table is left as built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cl.v)
			if err != nil {
				return err
			}
			build, err := cfg.Build.descriptor()
			if err != nil {
				return err
			}
			rebuild, err := cfg.Rebuild.descriptor()
			if err != nil {
				return err
			}
			p, err := newPlanner(cfg, build, rebuild)
			if err != nil {
				return err
			}

			tbl, err := p.engine.Build(p.handles, build)
			defer p.engine.Destroy(tbl)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}

			out := cmd.OutOrStdout()
			fits := p.engine.CanFit(tbl, rebuild)
			fmt.Fprintf(out, "fits: %t\n", fits)
			if !fits {
				if err := renderLayout(out, tbl, build); err != nil {
					return err
				}
			}

			// Rebuild reports sbt.ErrCapacityExceeded itself when the groups do not fit.
			if err := p.engine.Rebuild(p.handles, tbl, rebuild); err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}
			return renderLayout(out, tbl, keepReserve(rebuild, build))
		},
	}
}

// keepReserve returns d with the reserve counts of built. Rebuild never reallocates, so the spare
// records of a rebuilt table are still the ones it was built with.
func keepReserve(d, built sbt.Descriptor) sbt.Descriptor {
	for _, k := range sbt.Kinds {
		d.Groups[k].Reserve = built.Groups[k].Reserve
	}
	return d
}
