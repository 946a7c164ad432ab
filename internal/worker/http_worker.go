package worker

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPWorker обслуживает handler на addr до отмены ctx.
type HTTPWorker struct {
	server *http.Server
	logger *slog.Logger
}

func NewHTTPWorker(addr string, handler http.Handler, logger *slog.Logger) *HTTPWorker {
	return &HTTPWorker{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

func (w *HTTPWorker) Name() string {
	return "http"
}

func (w *HTTPWorker) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.server.Addr)
	if err != nil {
		return err
	}
	return w.serve(ctx, ln)
}

func (w *HTTPWorker) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		w.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- w.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := w.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	w.logger.Info("http server stopped")
	return nil
}
