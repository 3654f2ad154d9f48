// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

import (
	"fmt"

	"github.com/ZSC714725/soxmanager/internal/sox/skills"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the SoxManager and SoX versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "soxmanager %s\n", version)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, err := skills.Probe(cfg.Sox.Path, skills.ProbeTimeout)
		if err != nil {
			fmt.Fprintf(out, "sox        unavailable: %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "sox        %s (%s)\n", v, cfg.Sox.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
