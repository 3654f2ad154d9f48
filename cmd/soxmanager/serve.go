// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// SoxManager - SoX 音频处理任务管理工具

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZSC714725/soxmanager/internal/api"
	"github.com/ZSC714725/soxmanager/internal/cache"
	"github.com/ZSC714725/soxmanager/internal/logger"
	"github.com/ZSC714725/soxmanager/internal/storage"
	"github.com/ZSC714725/soxmanager/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var bindAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if bindAddr != "" {
			cfg.Server.Bind = bindAddr
		}

		log, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		s, err := newSox(cfg, log)
		if err != nil {
			return fmt.Errorf("sox init: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		storeConfig := task.StoreConfig{
			Sox:      s,
			Logger:   logger.With(log, "task"),
			LogLines: cfg.Sox.LogLines,
		}

		if cfg.RedisEnabled() {
			publisher, err := cache.New(ctx, cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer publisher.Close()
			storeConfig.Publisher = publisher
			log.Info("publishing job state to redis %s, channel %s", cfg.Redis.Addr, publisher.Channel())
		}

		if cfg.MinioEnabled() {
			uploader, err := storage.New(cfg.Minio)
			if err != nil {
				return fmt.Errorf("minio: %w", err)
			}
			if err := uploader.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("minio: %w", err)
			}
			storeConfig.Uploader = uploader
			log.Info("uploading outputs to minio %s, bucket %s", cfg.Minio.Endpoint, cfg.Minio.Bucket)
		}

		store := task.NewStore(storeConfig)

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		server := &http.Server{
			Addr:    cfg.Server.Bind,
			Handler: api.NewRouter(api.NewHandler(store, s, logger.With(log, "api"))),
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("SoxManager listening on %s", cfg.Server.Bind)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server: %w", err)
			}
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server forced to shutdown: %v", err)
		}

		// abort and drop the remaining jobs
		for _, t := range store.List(nil, "") {
			if err := store.Delete(t.ID); err != nil {
				log.Warn("delete job %s: %v", t.ID, err)
			}
		}

		log.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&bindAddr, "bind", "b", "", "bind address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
