package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"trino-query-log/internal/config"
	"trino-query-log/internal/logger"
	"trino-query-log/internal/server"

	"github.com/spf13/cobra"
)

// shutdownTimeout 은 SIGTERM 후 진행 중인 요청을 기다리는 시간.
const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var (
		addr       string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive engine events over HTTP",
		Long:  "Start the HTTP receiver. The coordinator posts each event to /v1/query-created, /v1/query-completed or /v1/split-completed; accepted events are written to the configured sink. The listener config file is reloaded when it changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			cfg.ListenerConfig = configPath(configFile, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default $HTTP_ADDR or :8080)")
	cmd.Flags().StringVar(&configFile, "config", "", "listener config file (default $LISTENER_CONFIG)")

	return cmd
}

// serve
//
//  1. 로거 초기화
//  2. listener 설정 로드 + 파일 감시 (변경 시 Dispatcher 교체)
//  3. sink / Dispatcher 구성
//  4. HTTP 서버 시작
//  5. ctx 종료 시: HTTP 서버 먼저 멈추고 → sink 닫기 (archive flush 포함)
func serve(ctx context.Context, cfg config.Config) error {
	log := logger.Init(cfg)

	watcher, err := config.NewWatcher(cfg.ListenerConfig)
	if err != nil {
		return err
	}
	props := watcher.Properties()

	p, err := newPipeline(cfg, props, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Error().Err(err).Msg("sink close failed")
		}
	}()

	watcher.OnChange(p.reload)
	watcher.OnError(func(err error) {
		log.Error().Err(err).Str("path", cfg.ListenerConfig).Msg("listener config reload failed, keeping current config")
	})
	stopWatch, err := watcher.Watch()
	if err != nil {
		log.Warn().Err(err).Msg("config hot reload disabled")
	} else {
		defer stopWatch()
	}

	h := server.NewHandler(cfg, p.metrics, p.listener, log)
	srv := server.NewServer(cfg, server.NewMux(h, p.metrics))

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("config", cfg.ListenerConfig).
			Msg("query log server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	log.Info().Msg("shutdown complete")
	return nil
}

