package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const (
	apiShutdownTimeout     = 30 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

// notifyContext はSIGINTかSIGTERMでキャンセルされるコンテキストを返す。
func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// listenAndServe はctxがキャンセルされるまでserverを動かし、
// キャンセル後はshutdownTimeout以内に処理中のリクエストを待って停止する。
// 待ち受けに失敗した場合はctxを待たずにエラーを返す。
func listenAndServe(ctx context.Context, server *http.Server, name string, shutdownTimeout time.Duration) error {
	log := slog.With(slog.String("server", name), slog.String("addr", server.Addr))

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s listen error: %w", name, err)
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}
	log.Info("http server stopped")
	return nil
}
