// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package task

import (
	"container/ring"
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/process"
	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/sox/options"

	"github.com/lithammer/shortuuid/v4"
)

type stateType string

const (
	stateQueued    stateType = "queued"
	stateRunning   stateType = "running"
	stateSucceeded stateType = "succeeded"
	stateFailed    stateType = "failed"
	stateAborted   stateType = "aborted"
)

func (s stateType) IsRunning() bool {
	return s == stateRunning
}

// LogEntry is a tool log line kept with the task.
type LogEntry struct {
	Time time.Time `json:"time"`
	sox.LogEvent
}

// Task is a SoX processing task
type Task struct {
	ID        string
	Reference string
	Config    *Config
	CreatedAt int64
	UpdatedAt int64

	session *sox.Session
	cancel  context.CancelFunc
	done    chan struct{}

	state       stateType
	progress    *sox.ProgressEvent
	result      sox.Result
	err         error
	object      string
	lastPublish time.Time

	log    *ring.Ring
	subs   map[chan Event]struct{}
	closed bool
	lock   sync.RWMutex
	notify func(Snapshot)
}

// State returns the task state: queued, running, succeeded, failed or aborted.
func (t *Task) State() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return string(t.state)
}

// IsRunning returns whether SoX is running for the task
func (t *Task) IsRunning() bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.state.IsRunning()
}

// Status returns process status
func (t *Task) Status() process.Status {
	return t.session.Status()
}

// Progress returns the latest progress, nil before the first progress line.
func (t *Task) Progress() *sox.ProgressEvent {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.progress == nil {
		return nil
	}
	p := *t.progress
	return &p
}

// Result returns the result and error of the last finished run.
func (t *Task) Result() (sox.Result, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.result, t.err
}

// CommandLine returns the SoX command line of the last run.
func (t *Task) CommandLine() string {
	return t.session.LastCommandLine()
}

// Log returns the most recent tool log lines, oldest first.
func (t *Task) Log() []LogEntry {
	var out []LogEntry
	t.lock.RLock()
	t.log.Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(LogEntry))
		}
	})
	t.lock.RUnlock()
	return out
}

// Snapshot returns the current externally visible state.
func (t *Task) Snapshot() Snapshot {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.snapshotLocked()
}

func (t *Task) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:        t.ID,
		Reference: t.Reference,
		State:     string(t.state),
		ExitCode:  t.result.ExitCode,
		Object:    t.object,
		UpdatedAt: time.Unix(t.UpdatedAt, 0),
	}
	if t.progress != nil {
		p := *t.progress
		s.Progress = &p
	}
	if t.err != nil {
		s.Error = t.err.Error()
	}
	return s
}

// Subscribe returns a channel receiving the events of the task. Slow
// subscribers miss events. cancel must be called to release the channel.
// The channel is closed when the task is deleted, and is returned already
// closed for a deleted task.
func (t *Task) Subscribe() (events <-chan Event, cancel func()) {
	ch := make(chan Event, 64)

	t.lock.Lock()
	if t.closed {
		t.lock.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	t.lock.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.lock.Lock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
			t.lock.Unlock()
		})
	}
}

// Done is closed when the current run has finished. It is nil before the
// first run.
func (t *Task) Done() <-chan struct{} {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.done
}

// broadcastLocked must be called with t.lock held.
func (t *Task) broadcastLocked(e Event) {
	e.Time = time.Now()
	for ch := range t.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (t *Task) closeSubscribers() {
	t.lock.Lock()
	t.closed = true
	for ch := range t.subs {
		delete(t.subs, ch)
		close(ch)
	}
	t.lock.Unlock()
}

func (t *Task) setState(state stateType, err error) {
	t.lock.Lock()
	t.state = state
	t.err = err
	t.UpdatedAt = time.Now().Unix()
	e := Event{Type: EventState, State: string(state)}
	if err != nil {
		e.Error = err.Error()
	}
	t.broadcastLocked(e)
	snapshot := t.snapshotLocked()
	t.lastPublish = time.Now()
	t.lock.Unlock()

	t.notify(snapshot)
}

func (t *Task) onProgress(p *sox.ProgressEvent) {
	progress := *p

	t.lock.Lock()
	t.progress = &progress
	t.broadcastLocked(Event{Type: EventProgress, Progress: &progress})
	publish := time.Since(t.lastPublish) >= time.Second
	var snapshot Snapshot
	if publish {
		t.lastPublish = time.Now()
		snapshot = t.snapshotLocked()
	}
	t.lock.Unlock()

	if publish {
		t.notify(snapshot)
	}
}

func (t *Task) onLog(l sox.LogEvent) {
	t.lock.Lock()
	t.log.Value = LogEntry{Time: time.Now(), LogEvent: l}
	t.log = t.log.Next()
	t.broadcastLocked(Event{Type: EventLog, Log: &l})
	t.lock.Unlock()
}

// Store manages tasks in memory
type Store interface {
	Add(config *Config) (*Task, error)
	Get(id string) (*Task, error)
	List(ids []string, reference string) []*Task
	Delete(id string) error
	Start(id string) error
	Abort(id string) error
}

// StoreConfig for a task store
type StoreConfig struct {
	Sox       sox.Sox
	Logger    logger.Logger
	Publisher Publisher
	// Uploader may be nil when object storage is not configured.
	Uploader Uploader
	// LogLines is the number of tool log lines kept per task.
	LogLines int
}

type store struct {
	sox       sox.Sox
	logger    logger.Logger
	publisher Publisher
	uploader  Uploader
	logLines  int
	tasks     map[string]*Task
	mu        sync.RWMutex
}

// NewStore creates a task store
func NewStore(config StoreConfig) Store {
	s := &store{
		sox:       config.Sox,
		logger:    config.Logger,
		publisher: config.Publisher,
		uploader:  config.Uploader,
		logLines:  config.LogLines,
		tasks:     make(map[string]*Task),
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.logLines <= 0 {
		s.logLines = 100
	}
	return s
}

func (s *store) validate(config *Config) error {
	if len(config.Input) == 0 {
		return ErrNoInput
	}
	for _, in := range config.Input {
		if in.Path != "" && !s.sox.ValidateInput(in.Path) {
			return ErrInvalidInputAddress
		}
	}
	if config.Output != nil && config.Output.Path != "" && !s.sox.ValidateOutput(config.Output.Path) {
		return ErrInvalidOutputAddress
	}
	if config.Upload && (s.uploader == nil || config.Output == nil || config.Output.Path == "") {
		return ErrUploadUnavailable
	}
	if _, err := config.CombinationMode(); err != nil {
		return err
	}
	effects, err := config.CreateEffects()
	if err != nil {
		return err
	}
	for _, e := range effects {
		if err := s.sox.ValidateEffect(e.Name()); err != nil {
			return errors.Join(ErrInvalidEffect, err)
		}
	}
	return nil
}

func (s *store) Add(config *Config) (*Task, error) {
	if err := s.validate(config); err != nil {
		return nil, err
	}
	effects, _ := config.CreateEffects()

	if len(config.ID) == 0 {
		config.ID = shortuuid.New()
	}

	now := time.Now().Unix()
	task := &Task{
		ID:        config.ID,
		Reference: config.Reference,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
		state:     stateQueued,
		log:       ring.New(s.logLines),
		subs:      make(map[chan Event]struct{}),
		notify:    s.publish,
	}

	task.session = s.sox.NewSession(sox.SessionConfig{
		Global:     config.Global,
		Effects:    effects,
		OnProgress: task.onProgress,
		OnLog:      task.onLog,
		Logger:     logger.With(s.logger, config.ID),
	})

	s.mu.Lock()
	if _, exists := s.tasks[config.ID]; exists {
		s.mu.Unlock()
		return nil, ErrTaskExists
	}
	s.tasks[config.ID] = task
	s.mu.Unlock()

	// s.mu is not held across publish or start
	s.publish(task.Snapshot())

	if config.Autostart {
		if err := s.start(task); err != nil {
			return nil, err
		}
	}

	return task, nil
}

func (s *store) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *store) List(ids []string, reference string) []*Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Task
	for _, t := range s.tasks {
		if len(reference) > 0 && t.Reference != reference {
			continue
		}
		if len(ids) > 0 {
			found := false
			for _, id := range ids {
				if t.ID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *store) Delete(id string) error {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.tasks, id)
	s.mu.Unlock()

	s.abort(t)
	if done := t.Done(); done != nil {
		<-done
	}
	t.closeSubscribers()

	if err := s.publisher.Remove(context.Background(), id); err != nil {
		s.logger.Error("remove task %s from cache: %v", id, err)
	}
	return nil
}

func (s *store) Start(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.start(t)
}

func (s *store) start(t *Task) error {
	mode, err := t.Config.CombinationMode()
	if err != nil {
		return err
	}

	t.lock.Lock()
	if t.state.IsRunning() {
		t.lock.Unlock()
		return ErrTaskRunning
	}
	t.state = stateRunning
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	t.progress = nil
	t.object = ""
	t.lock.Unlock()

	t.setState(stateRunning, nil)
	go s.run(ctx, t, mode)
	return nil
}

func (s *store) run(ctx context.Context, t *Task, mode options.CombinationMode) {
	log := logger.With(s.logger, t.ID)

	t.lock.RLock()
	done := t.done
	cancel := t.cancel
	t.lock.RUnlock()
	defer close(done)
	defer cancel()

	res, err := t.session.Process(ctx, t.Config.Input, t.Config.Output, mode)

	t.lock.Lock()
	t.result = res
	t.lock.Unlock()

	switch {
	case errors.Is(err, sox.ErrAborted):
		log.Info("aborted")
		t.setState(stateAborted, err)
		return
	case err != nil:
		log.Error("failed: %v", err)
		t.setState(stateFailed, err)
		return
	}

	if t.Config.Upload && s.uploader != nil {
		object := t.ID + "/" + filepath.Base(t.Config.Output.Path)
		location, err := s.uploader.Upload(ctx, t.Config.Output.Path, object)
		if err != nil {
			log.Error("upload %s: %v", t.Config.Output.Path, err)
			t.setState(stateFailed, err)
			return
		}
		t.lock.Lock()
		t.object = location
		t.lock.Unlock()
	}

	log.Info("finished in %s", res.Duration)
	t.setState(stateSucceeded, nil)
}

func (s *store) Abort(id string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	s.abort(t)
	return nil
}

func (s *store) abort(t *Task) {
	t.lock.RLock()
	cancel := t.cancel
	t.lock.RUnlock()

	if cancel != nil {
		cancel()
	}
	t.session.Abort()
}

func (s *store) publish(snapshot Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, snapshot); err != nil {
		s.logger.Debug("publish task %s: %v", snapshot.ID, err)
	}
}
