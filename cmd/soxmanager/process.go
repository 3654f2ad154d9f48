// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/sox/options"
	"github.com/ZSC714725/soxmanager/internal/sox/parse"

	"github.com/spf13/cobra"
)

var processFlags struct {
	output   string
	effects  []string
	combine  string
	typ      string
	rate     uint32
	channels uint16
	bits     uint16
	comment  string
	norm     bool
	quiet    bool
}

var processCmd = &cobra.Command{
	Use:   "process <input>... [-o output] [-e effect]...",
	Short: "Run SoX on the inputs and show progress",
	Long: `Run SoX on the inputs, writing to the output file and applying the
effects in the order given. Without an output the effects chain runs
against the null device, e.g. for "stat" or "noiseprof".`,
	Example: `  soxmanager process in.wav -o out.flac -e "vol 3 dB" -e "rate 48k"
  soxmanager process a.wav b.wav --combine mix -o mixed.wav`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := processFlags

		mode, err := options.ParseCombinationMode(f.combine)
		if err != nil {
			return err
		}
		effects := make([]options.Effect, 0, len(f.effects))
		for _, s := range f.effects {
			e, err := options.ParseEffect(s)
			if err != nil {
				return err
			}
			effects = append(effects, e)
		}

		// sox runs in its own working directory
		inputs := make([]options.InputFile, len(args))
		for i, in := range args {
			path, err := filepath.Abs(in)
			if err != nil {
				return err
			}
			inputs[i] = options.InputFile{Path: path}
		}
		var output *options.OutputFile
		if f.output != "" {
			path, err := filepath.Abs(f.output)
			if err != nil {
				return err
			}
			output = &options.OutputFile{
				FormatOptions: options.FormatOptions{
					Type:     f.typ,
					Rate:     f.rate,
					Channels: f.channels,
					Bits:     f.bits,
				},
				Path:      path,
				Comment:   f.comment,
				Normalize: f.norm,
			}
		}

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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stderr := cmd.ErrOrStderr()
		session := s.NewSession(sox.SessionConfig{
			Effects: effects,
			Logger:  log,
			OnProgress: func(p *sox.ProgressEvent) {
				if f.quiet {
					return
				}
				fmt.Fprintf(stderr, "\r%3d%%  %s [%s]  %s   ",
					p.Percent,
					parse.FormatTimeCode(p.Processed),
					parse.FormatTimeCode(p.Remaining),
					formatSize(p.OutputSize))
			},
			OnLog: func(e sox.LogEvent) {
				if e.Level >= parse.LevelWarning || verbose {
					fmt.Fprintf(stderr, "\n%s", e)
				}
			},
		})

		res, err := session.Process(ctx, inputs, output, mode)
		if !f.quiet {
			fmt.Fprintln(stderr)
		}
		if errors.Is(err, sox.ErrAborted) {
			return errors.New("interrupted")
		}
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("sox exited with code %d", res.ExitCode)
		}
		if !f.quiet {
			fmt.Fprintf(stderr, "done in %s\n", res.Duration.Round(10*time.Millisecond))
		}
		return nil
	},
}

func formatSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "kMG"[exp])
}

func init() {
	fl := processCmd.Flags()
	fl.StringVarP(&processFlags.output, "output", "o", "", "output file, empty for the null device")
	fl.StringArrayVarP(&processFlags.effects, "effect", "e", nil, `effect with its arguments, e.g. "vol 3 dB"`)
	fl.StringVar(&processFlags.combine, "combine", "", "input combining: concatenate, merge, mix, mix-power, multiply, sequence")
	fl.StringVarP(&processFlags.typ, "type", "t", "", "output file type")
	fl.Uint32VarP(&processFlags.rate, "rate", "r", 0, "output sample rate")
	fl.Uint16Var(&processFlags.channels, "channels", 0, "output channel count")
	fl.Uint16VarP(&processFlags.bits, "bits", "b", 0, "output sample size in bits")
	fl.StringVar(&processFlags.comment, "comment", "", "output file comment")
	fl.BoolVar(&processFlags.norm, "norm", false, "normalize the output")
	fl.BoolVarP(&processFlags.quiet, "quiet", "q", false, "do not print progress")
	rootCmd.AddCommand(processCmd)
}
