// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具
//
// Package sox drives the SoX command line tool: it probes the binary,
// runs processing sessions with live progress and queries file info.

package sox

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/process"
	"github.com/ZSC714725/soxmanager/internal/sox/options"
	"github.com/ZSC714725/soxmanager/internal/sox/parse"
	"github.com/ZSC714725/soxmanager/internal/sox/skills"
)

// Sox manages the SoX binary and its skills
type Sox interface {
	NewSession(config SessionConfig) *Session
	Info(ctx context.Context, path string) (parse.AudioInfo, error)
	ValidateInput(path string) bool
	ValidateOutput(path string) bool
	ValidateEffect(name string) error
	Skills() skills.Skills
	ReloadSkills() error
	Binary() string
}

// Config for SoX
type Config struct {
	Binary string
	// Dir is the working directory of processing runs. Empty means the
	// directory of the binary.
	Dir string
	// Global options applied to every session unless overridden.
	Global          options.Global
	ValidatorInput  Validator
	ValidatorOutput Validator
	// InfoTimeout bounds a file info query. Defaults to 10s.
	InfoTimeout time.Duration
	// Sampling enables CPU and memory sampling of running processes.
	Sampling bool
	Logger   logger.Logger
}

type sox struct {
	binary       string
	dir          string
	global       options.Global
	validatorIn  Validator
	validatorOut Validator
	infoTimeout  time.Duration
	sampling     bool
	logger       logger.Logger

	skills     skills.Skills
	skillsLock sync.RWMutex
}

// New looks up the binary, probes its version and returns a Sox.
func New(config Config) (Sox, error) {
	if config.Binary == "" {
		config.Binary = "sox"
	}
	binary, err := exec.LookPath(config.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrToolNotFound, config.Binary, err)
	}
	if abs, err := filepath.Abs(binary); err == nil {
		binary = abs
	}

	s := &sox{
		binary:       binary,
		dir:          config.Dir,
		global:       config.Global,
		validatorIn:  config.ValidatorInput,
		validatorOut: config.ValidatorOutput,
		infoTimeout:  config.InfoTimeout,
		sampling:     config.Sampling,
		logger:       config.Logger,
	}

	if s.dir == "" {
		s.dir = filepath.Dir(binary)
	}
	if s.infoTimeout <= 0 {
		s.infoTimeout = DefaultInfoTimeout
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.validatorIn == nil {
		s.validatorIn, _ = NewValidator(nil, nil)
	}
	if s.validatorOut == nil {
		s.validatorOut, _ = NewValidator(nil, nil)
	}

	sk, err := skills.New(s.binary)
	if err != nil {
		return nil, fmt.Errorf("invalid sox: %w", err)
	}
	s.skills = sk
	s.logger.Info("using sox %s at %s", sk.Sox.Version, s.binary)

	return s, nil
}

func (s *sox) Binary() string {
	return s.binary
}

func (s *sox) ValidateInput(path string) bool {
	return s.validatorIn.IsValid(path)
}

func (s *sox) ValidateOutput(path string) bool {
	return s.validatorOut.IsValid(path)
}

func (s *sox) ValidateEffect(name string) error {
	if !s.Skills().HasEffect(name) {
		return fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}
	return nil
}

func (s *sox) Skills() skills.Skills {
	s.skillsLock.RLock()
	defer s.skillsLock.RUnlock()
	return s.skills
}

func (s *sox) ReloadSkills() error {
	sk, err := skills.New(s.binary)
	if err != nil {
		return fmt.Errorf("reload skills: %w", err)
	}
	s.skillsLock.Lock()
	s.skills = sk
	s.skillsLock.Unlock()
	return nil
}

func (s *sox) patterns() *parse.PatternSet {
	return s.Skills().Patterns
}

func (s *sox) newSampler() process.Sampler {
	if s.sampling {
		return process.NewSysSampler()
	}
	return process.NewNullSampler()
}
