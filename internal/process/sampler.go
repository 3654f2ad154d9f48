// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package process

import (
	"sync"
	"time"

	gopsutilprocess "github.com/shirou/gopsutil/v3/process"
)

// Sampler reports resource usage of a running child.
type Sampler interface {
	Start(pid int) error
	Stop()
	Current() (cpu float64, memory uint64)
}

// sampleInterval 后台采样间隔
const sampleInterval = time.Second

// sysSampler 使用 gopsutil 采集进程 CPU 和内存。Stop 之后保留最后一次采样值。
type sysSampler struct {
	mu     sync.RWMutex
	proc   *gopsutilprocess.Process
	stop   chan struct{}
	cpu    float64
	memory uint64
}

// NewSysSampler returns a gopsutil backed Sampler
func NewSysSampler() Sampler {
	return &sysSampler{}
}

func (s *sysSampler) Start(pid int) error {
	proc, err := gopsutilprocess.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	stop := make(chan struct{})

	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
	}
	s.proc = proc
	s.stop = stop
	s.cpu, s.memory = 0, 0
	s.mu.Unlock()

	s.sample(proc)
	go s.loop(proc, stop)
	return nil
}

func (s *sysSampler) loop(proc *gopsutilprocess.Process, stop chan struct{}) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sample(proc)
		}
	}
}

// sample 读取一次用量，进程已退出时保留旧值
func (s *sysSampler) sample(proc *gopsutilprocess.Process) {
	cpu, cpuErr := proc.CPUPercent()
	mem, memErr := proc.MemoryInfo()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != proc {
		return
	}
	if cpuErr == nil {
		s.cpu = cpu
	}
	if memErr == nil && mem != nil && mem.RSS > 0 {
		s.memory = mem.RSS
	}
}

func (s *sysSampler) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.proc = nil
	s.mu.Unlock()
}

func (s *sysSampler) Current() (cpu float64, memory uint64) {
	s.mu.RLock()
	proc := s.proc
	s.mu.RUnlock()
	if proc != nil {
		s.sample(proc)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cpu, s.memory
}

type nullSampler struct{}

// NewNullSampler returns a Sampler that reports nothing
func NewNullSampler() Sampler {
	return nullSampler{}
}

func (nullSampler) Start(int) error            { return nil }
func (nullSampler) Stop()                      {}
func (nullSampler) Current() (float64, uint64) { return 0, 0 }
