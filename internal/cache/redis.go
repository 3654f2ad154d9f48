// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具
//
// Package cache mirrors task snapshots into Redis so other services can
// read the state of a task or follow it on a pub/sub channel.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZSC714725/soxmanager/internal/task"
)

// Config Redis 配置
type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Publisher writes task snapshots to Redis
type Publisher struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis and checks the connection.
func New(ctx context.Context, config Config) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, config), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, config Config) *Publisher {
	p := &Publisher{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
	if p.prefix == "" {
		p.prefix = "soxmanager:"
	}
	if p.ttl <= 0 {
		p.ttl = 24 * time.Hour
	}
	return p
}

func (p *Publisher) key(id string) string {
	return p.prefix + "task:" + id
}

// Channel is the pub/sub channel snapshots are published on.
func (p *Publisher) Channel() string {
	return p.prefix + "events"
}

// Publish stores the snapshot with the configured TTL and publishes it.
func (p *Publisher) Publish(ctx context.Context, snapshot task.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.key(snapshot.ID), data, p.ttl)
	pipe.Publish(ctx, p.Channel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish task %s: %w", snapshot.ID, err)
	}
	return nil
}

// Get returns the stored snapshot of a task. ok is false if none is stored.
func (p *Publisher) Get(ctx context.Context, id string) (snapshot task.Snapshot, ok bool, err error) {
	data, err := p.client.Get(ctx, p.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return task.Snapshot{}, false, nil
	}
	if err != nil {
		return task.Snapshot{}, false, err
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return task.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Remove deletes the stored snapshot of a task.
func (p *Publisher) Remove(ctx context.Context, id string) error {
	return p.client.Del(ctx, p.key(id)).Err()
}

// Close closes the connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
