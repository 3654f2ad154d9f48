// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package task

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/ZSC714725/soxmanager/internal/sox"
	"github.com/ZSC714725/soxmanager/internal/sox/options"
)

const fakeSox = `#!/bin/sh
if [ "$1" = "--version" ]; then echo "sox:      SoX v14.4.2"; exit 0; fi
if [ "$1" = "-h" ]; then echo "EFFECTS: vol reverse"; exit 0; fi
`

func newSox(t *testing.T, body string) sox.Sox {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "sox")
	if err := os.WriteFile(path, []byte(fakeSox+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := sox.New(sox.Config{Binary: path})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type fakePublisher struct {
	mu        sync.Mutex
	snapshots []Snapshot
	removed   []string
}

func (p *fakePublisher) Publish(_ context.Context, s Snapshot) error {
	p.mu.Lock()
	p.snapshots = append(p.snapshots, s)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Remove(_ context.Context, id string) error {
	p.mu.Lock()
	p.removed = append(p.removed, id)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) states() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, s := range p.snapshots {
		if len(out) == 0 || out[len(out)-1] != s.State {
			out = append(out, s.State)
		}
	}
	return out
}

type fakeUploader struct {
	path, object string
}

func (u *fakeUploader) Upload(_ context.Context, path, object string) (string, error) {
	u.path, u.object = path, object
	return "soxmanager/" + object, nil
}

func wait(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestRunSucceeded(t *testing.T) {
	s := newSox(t, `printf '%s\r' 'In:50.00%  00:00:01.00 [00:00:01.00] Out:4k' >&2
echo "sox WARN dither: dither clipped 1 samples" >&2
exit 0`)

	pub := &fakePublisher{}
	up := &fakeUploader{}
	store := NewStore(StoreConfig{Sox: s, Publisher: pub, Uploader: up})

	task, err := store.Add(&Config{
		Input:   []options.InputFile{{Path: "in.wav"}},
		Output:  &options.OutputFile{Path: "/tmp/out.flac"},
		Effects: []string{"vol 3 dB"},
		Upload:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if task.ID == "" || task.State() != "queued" {
		t.Fatalf("new task %q in state %s", task.ID, task.State())
	}

	events, cancel := task.Subscribe()
	defer cancel()

	if err := store.Start(task.ID); err != nil {
		t.Fatal(err)
	}
	wait(t, task)

	if task.State() != "succeeded" {
		_, err := task.Result()
		t.Fatalf("state %s: %v", task.State(), err)
	}
	if p := task.Progress(); p == nil || p.Percent != 50 {
		t.Fatalf("progress %+v", p)
	}
	logs := task.Log()
	if len(logs) != 1 || logs[0].Source != "dither" {
		t.Fatalf("log %+v", logs)
	}
	if up.path != "/tmp/out.flac" || up.object != task.ID+"/out.flac" {
		t.Fatalf("upload %+v", up)
	}
	if snap := task.Snapshot(); snap.Object != "soxmanager/"+task.ID+"/out.flac" {
		t.Fatalf("snapshot object %q", snap.Object)
	}

	states := pub.states()
	want := []string{"queued", "running", "succeeded"}
	if len(states) != len(want) {
		t.Fatalf("published states %v", states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("published states %v", states)
		}
	}

	seen := map[string]bool{}
	for len(events) > 0 {
		e := <-events
		seen[e.Type] = true
	}
	if !seen[EventState] || !seen[EventProgress] || !seen[EventLog] {
		t.Fatalf("events seen %v", seen)
	}
}

func TestRunFailed(t *testing.T) {
	s := newSox(t, `echo "sox FAIL formats: can't open input file" >&2
exit 2`)
	store := NewStore(StoreConfig{Sox: s})

	task, err := store.Add(&Config{Input: []options.InputFile{{Path: "in.wav"}}, Autostart: true})
	if err != nil {
		t.Fatal(err)
	}
	wait(t, task)

	res, err := task.Result()
	var procErr *sox.ProcessingError
	if !errors.As(err, &procErr) || task.State() != "failed" || res.ExitCode != 2 {
		t.Fatalf("state %s exit %d err %v", task.State(), res.ExitCode, err)
	}
}

func TestAbortAndDelete(t *testing.T) {
	s := newSox(t, `exec sleep 30`)
	pub := &fakePublisher{}
	store := NewStore(StoreConfig{Sox: s, Publisher: pub})

	task, err := store.Add(&Config{ID: "job1", Input: []options.InputFile{{Path: "in.wav"}}, Autostart: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Start("job1"); !errors.Is(err, ErrTaskRunning) {
		t.Fatalf("expected ErrTaskRunning, got %v", err)
	}
	if _, err := store.Add(&Config{ID: "job1", Input: []options.InputFile{{Path: "in.wav"}}}); !errors.Is(err, ErrTaskExists) {
		t.Fatalf("expected ErrTaskExists, got %v", err)
	}

	if err := store.Abort("job1"); err != nil {
		t.Fatal(err)
	}
	wait(t, task)
	if task.State() != "aborted" {
		t.Fatalf("state %s", task.State())
	}

	if err := store.Delete("job1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("job1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.removed) != 1 || pub.removed[0] != "job1" {
		t.Fatalf("removed %v", pub.removed)
	}
	if err := store.Abort("job1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddValidation(t *testing.T) {
	s := newSox(t, "exit 0")
	store := NewStore(StoreConfig{Sox: s})

	tests := []struct {
		name   string
		config Config
		want   error
	}{
		{"no input", Config{}, ErrNoInput},
		{"bad effect", Config{Input: []options.InputFile{{Path: "a.wav"}}, Effects: []string{"chorus 0.5"}}, ErrInvalidEffect},
		{"bad mode", Config{Input: []options.InputFile{{Path: "a.wav"}}, Combine: "blend"}, ErrInvalidConfig},
		{"upload without storage", Config{Input: []options.InputFile{{Path: "a.wav"}}, Output: &options.OutputFile{Path: "b.wav"}, Upload: true}, ErrUploadUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Add(&tt.config); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	s := newSox(t, "exit 0")
	store := NewStore(StoreConfig{Sox: s})

	for _, c := range []Config{
		{ID: "a", Reference: "album", Input: []options.InputFile{{Path: "1.wav"}}},
		{ID: "b", Reference: "album", Input: []options.InputFile{{Path: "2.wav"}}},
		{ID: "c", Reference: "single", Input: []options.InputFile{{Path: "3.wav"}}},
	} {
		c := c
		if _, err := store.Add(&c); err != nil {
			t.Fatal(err)
		}
	}

	if got := store.List(nil, ""); len(got) != 3 || got[0].ID != "a" {
		t.Fatalf("list all %d", len(got))
	}
	if got := store.List(nil, "album"); len(got) != 2 {
		t.Fatalf("list by reference %d", len(got))
	}
	if got := store.List([]string{"c", "x"}, ""); len(got) != 1 || got[0].ID != "c" {
		t.Fatalf("list by id %v", got)
	}
}

func TestLogRing(t *testing.T) {
	s := newSox(t, `for i in 1 2 3 4 5; do echo "sox INFO sox: line $i" >&2; done
exit 0`)
	store := NewStore(StoreConfig{Sox: s, LogLines: 3})

	task, err := store.Add(&Config{Input: []options.InputFile{{Path: "in.wav"}}, Autostart: true})
	if err != nil {
		t.Fatal(err)
	}
	wait(t, task)

	logs := task.Log()
	if len(logs) != 3 || logs[0].Message != "line 3" || logs[2].Message != "line 5" {
		t.Fatalf("log %+v", logs)
	}
}

type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingPublisher) Publish(ctx context.Context, _ Snapshot) error {
	p.once.Do(func() { close(p.entered) })
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	return nil
}

func (p *blockingPublisher) Remove(context.Context, string) error { return nil }

func TestSlowPublisherDoesNotBlockLookups(t *testing.T) {
	s := newSox(t, "exit 0")
	pub := &blockingPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(StoreConfig{Sox: s, Publisher: pub})

	added := make(chan error, 1)
	go func() {
		_, err := store.Add(&Config{ID: "job1", Input: []options.InputFile{{Path: "in.wav"}}})
		added <- err
	}()

	select {
	case <-pub.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("publish not called")
	}

	looked := make(chan error, 1)
	go func() {
		_, err := store.Get("job1")
		store.List(nil, "")
		looked <- err
	}()
	select {
	case err := <-looked:
		if err != nil {
			t.Fatalf("get: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("lookup blocked by publish")
	}

	close(pub.release)
	if err := <-added; err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestSubscribeAfterDelete(t *testing.T) {
	s := newSox(t, "exit 0")
	store := NewStore(StoreConfig{Sox: s})

	task, err := store.Add(&Config{Input: []options.InputFile{{Path: "in.wav"}}})
	if err != nil {
		t.Fatal(err)
	}
	live, cancelLive := task.Subscribe()
	defer cancelLive()

	if err := store.Delete(task.ID); err != nil {
		t.Fatal(err)
	}
	for range live {
	}

	late, cancel := task.Subscribe()
	defer cancel()
	select {
	case _, ok := <-late:
		if ok {
			t.Fatal("received an event on a deleted task")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription to a deleted task never closed")
	}
}
