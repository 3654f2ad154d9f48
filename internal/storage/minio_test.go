// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package storage

import "testing"

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	if _, err := New(Config{Bucket: "audio"}); err == nil {
		t.Fatal("expected error without endpoint")
	}
	if _, err := New(Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestObjectName(t *testing.T) {
	u, err := New(Config{Endpoint: "localhost:9000", Bucket: "audio", Prefix: "/outputs/"})
	if err != nil {
		t.Fatal(err)
	}
	if got := u.objectName("abc/out.flac"); got != "outputs/abc/out.flac" {
		t.Fatalf("object name %q", got)
	}

	plain, err := New(Config{Endpoint: "localhost:9000", Bucket: "audio"})
	if err != nil {
		t.Fatal(err)
	}
	if got := plain.objectName("/abc/out.flac"); got != "abc/out.flac" {
		t.Fatalf("object name %q", got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.WAV":    "audio/wav",
		"b.flac":   "audio/flac",
		"c.mp3":    "audio/mpeg",
		"d.prof":   "application/octet-stream",
		"noextens": "application/octet-stream",
	}
	for in, want := range tests {
		if got := contentType(in); got != want {
			t.Errorf("contentType(%q) = %q, want %q", in, got, want)
		}
	}
}
