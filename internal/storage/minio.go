// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具
//
// Package storage uploads finished outputs to MinIO or any S3 compatible
// object store.

package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config MinIO 配置
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	// Prefix is prepended to every object name.
	Prefix string `yaml:"prefix"`
}

// Uploader stores files in a bucket
type Uploader struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates an Uploader. No request is made until EnsureBucket or Upload.
func New(config Config) (*Uploader, error) {
	if config.Endpoint == "" || config.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: config.Bucket,
		prefix: strings.Trim(config.Prefix, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// Upload stores the local file at filePath as object and returns
// "bucket/object".
func (u *Uploader) Upload(ctx context.Context, filePath, object string) (string, error) {
	name := u.objectName(object)
	opts := minio.PutObjectOptions{ContentType: contentType(filePath)}

	if _, err := u.client.FPutObject(ctx, u.bucket, name, filePath, opts); err != nil {
		return "", fmt.Errorf("upload %s: %w", filePath, err)
	}
	return u.bucket + "/" + name, nil
}

func (u *Uploader) objectName(object string) string {
	object = strings.TrimLeft(filepath.ToSlash(object), "/")
	if u.prefix == "" {
		return object
	}
	return path.Join(u.prefix, object)
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".aiff": "audio/aiff",
	".aif":  "audio/aiff",
	".au":   "audio/basic",
	".opus": "audio/opus",
}

func contentType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
