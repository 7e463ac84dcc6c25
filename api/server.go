// Package api exposes read-only HTTP endpoints over planning data.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kilianp07/fieldroute/infra/logger"
)

// Serve mounts routes on a dedicated ServeMux and serves them on addr until
// ctx is canceled.
func Serve(ctx context.Context, addr string, routes map[string]http.Handler) error {
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.Handle(pattern, h)
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log := logger.New("api")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("api shutdown: %v", err)
		}
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
