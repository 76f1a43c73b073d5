package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/celer/vkgrt/sbt"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (cl *commandline) layoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Build the table described by the build section and print its regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cl.v)
			if err != nil {
				return err
			}
			d, err := cfg.Build.descriptor()
			if err != nil {
				return err
			}
			p, err := newPlanner(cfg, d)
			if err != nil {
				return err
			}

			tbl, buildErr := p.engine.Build(p.handles, d)
			defer p.engine.Destroy(tbl)

			if err := renderLayout(cmd.OutOrStdout(), tbl, d); err != nil {
				return err
			}
			return buildErr
		},
	}
}

// renderLayout prints one row per group kind.
func renderLayout(w io.Writer, tbl *sbt.Table, d sbt.Descriptor) error {
	consoleTable := tablewriter.NewWriter(w)
	consoleTable.SetHeader([]string{"KIND", "GROUPS", "RESERVE", "RECORD SIZE", "STRIDE", "SIZE", "CAPACITY", "ADDRESS"})
	consoleTable.SetAutoFormatHeaders(false)

	for _, k := range sbt.Kinds {
		region, err := tbl.Region(k)
		if err != nil {
			return err
		}
		rs, err := tbl.RecordSize(k)
		if err != nil {
			return err
		}
		capacity, err := tbl.Capacity(k)
		if err != nil {
			return err
		}
		buf, err := tbl.Buffer(k)
		if err != nil {
			return err
		}

		address := "-"
		if buf.IsValid() {
			address = fmt.Sprintf("0x%x", buf.DeviceAddress)
		}

		consoleTable.Append([]string{
			k.String(),
			strconv.FormatUint(uint64(d.Groups[k].Count()), 10),
			strconv.FormatUint(uint64(d.Groups[k].Reserve), 10),
			strconv.FormatUint(rs, 10),
			strconv.FormatUint(region.Stride, 10),
			strconv.FormatUint(region.Size, 10),
			strconv.FormatUint(capacity, 10),
			address,
		})
	}

	consoleTable.Render()
	return nil
}
