// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/t8code-go/t8mesh/lib/textui"
)

func main() {
	logLevelFlag := textui.LogLevelFlag{Level: dlog.LogLevelInfo}

	var numTrees int
	var ranks int
	var level int
	var balance bool
	var recursive bool

	argparser := &cobra.Command{
		Use:   "t8mesh-demo",
		Short: "Build, adapt, and balance a toy forest over an in-process rank group",

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := textui.NewLogger(os.Stderr, logLevelFlag.Level)
			ctx = dlog.WithLogger(ctx, logger)

			grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
				EnableSignalHandling: true,
			})
			grp.Go("main", func(ctx context.Context) error {
				return run(ctx, demoConfig{
					numTrees:  numTrees,
					ranks:     ranks,
					level:     level,
					balance:   balance,
					recursive: recursive,
				})
			})
			return grp.Wait()
		},
	}
	argparser.PersistentFlags().Var(&logLevelFlag, "verbosity", "set the verbosity")
	argparser.Flags().IntVar(&numTrees, "trees", 4, "number of quadrilateral trees in the strip mesh")
	argparser.Flags().IntVar(&ranks, "ranks", 2, "number of simulated ranks sharing the mesh")
	argparser.Flags().IntVar(&level, "level", 2, "uniform refinement level to build before adapting")
	argparser.Flags().BoolVar(&balance, "balance", true, "run the 2:1 balance driver after adapting")
	argparser.Flags().BoolVar(&recursive, "recursive", false, "use the recursive adapt engine")

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
