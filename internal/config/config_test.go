// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.Server.Bind != def.Server.Bind || cfg.Sox.Path != def.Sox.Path {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.RedisEnabled() || cfg.MinioEnabled() {
		t.Fatal("redis and minio must be disabled by default")
	}
}

func TestLoadYAML(t *testing.T) {
	chdir(t, t.TempDir())

	path := writeConfig(t, `
server:
  bind: 127.0.0.1:9000
sox:
  path: /opt/sox/bin/sox
  buffer: 16384
  multithreaded: false
  log_lines: 0
  info_timeout: 3s
  input:
    allow: ['^/data/']
    block: ['\.\.']
log:
  level: debug
redis:
  addr: localhost:6379
  ttl: 1h
minio:
  endpoint: localhost:9000
  bucket: audio
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Bind != "127.0.0.1:9000" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Sox.Path != "/opt/sox/bin/sox" || cfg.Sox.Buffer != 16384 {
		t.Errorf("sox = %+v", cfg.Sox)
	}
	if cfg.Sox.Multithreaded == nil || *cfg.Sox.Multithreaded {
		t.Errorf("multithreaded = %v", cfg.Sox.Multithreaded)
	}
	if cfg.Sox.LogLines != 100 {
		t.Errorf("log lines = %d, want default 100", cfg.Sox.LogLines)
	}
	if cfg.Sox.InfoTimeout != 3*time.Second {
		t.Errorf("info timeout = %s", cfg.Sox.InfoTimeout)
	}
	if len(cfg.Sox.Input.Allow) != 1 || len(cfg.Sox.Input.Block) != 1 {
		t.Errorf("input rules = %+v", cfg.Sox.Input)
	}
	if cfg.Log.Level != "debug" || cfg.Log.MaxSize != 100 {
		t.Errorf("log = %+v", cfg.Log)
	}
	if !cfg.RedisEnabled() || cfg.Redis.TTL != time.Hour {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.MinioEnabled() {
		t.Errorf("minio = %+v", cfg.Minio)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SOX_PATH", "/usr/local/bin/sox")
	t.Setenv("SOXMANAGER_BIND", ":9999")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, "sox:\n  path: /opt/sox\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sox.Path != "/usr/local/bin/sox" {
		t.Errorf("sox path = %q", cfg.Sox.Path)
	}
	if cfg.Server.Bind != ":9999" {
		t.Errorf("bind = %q", cfg.Server.Bind)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 2 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.Minio.UseSSL {
		t.Error("minio ssl not set")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("MINIO_BUCKET", "")
	os.Unsetenv("MINIO_BUCKET")
	t.Cleanup(func() { os.Unsetenv("MINIO_BUCKET") })

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MINIO_BUCKET=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Minio.Bucket != "from-dotenv" {
		t.Fatalf("bucket = %q", cfg.Minio.Bucket)
	}
}

func TestLoadInvalid(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Fatal("expected a parse error")
	}

	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error for REDIS_DB")
	}
}
