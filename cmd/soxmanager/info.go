// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/sox/parse"

	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info <file>...",
	Short: "Print the properties of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := cliLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		s, err := newSox(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		var failed int
		for i, path := range args {
			info, err := s.Info(ctx, path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
				continue
			}

			if infoJSON {
				enc := json.NewEncoder(out)
				if err := enc.Encode(struct {
					Path string `json:"path"`
					parse.AudioInfo
				}{path, info}); err != nil {
					return err
				}
				continue
			}

			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "File        : %s\n", path)
			fmt.Fprintf(out, "Format      : %s\n", info.Format)
			fmt.Fprintf(out, "Channels    : %d\n", info.Channels)
			fmt.Fprintf(out, "Sample rate : %d Hz\n", info.SampleRate)
			fmt.Fprintf(out, "Precision   : %d-bit\n", info.SampleSize)
			fmt.Fprintf(out, "Duration    : %s\n", parse.FormatTimeCode(info.Duration))
			fmt.Fprintf(out, "Size        : %d bytes\n", info.Size)
			fmt.Fprintf(out, "Bit rate    : %d bit/s\n", info.BitRate)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print one JSON object per file")
	rootCmd.AddCommand(infoCmd)
}
