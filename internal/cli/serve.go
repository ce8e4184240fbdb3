package cli

import (
	stdcontext "context"
	"fmt"
	"log/slog"
	"net"

	httpapi "github.com/Paintersrp/subproc/internal/api/http"
	"github.com/Paintersrp/subproc/internal/metrics"
)

// serveMetrics starts the metrics endpoint in the background. The returned
// function stops it and waits for it to exit.
func serveMetrics(ctx stdcontext.Context, addr string, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on metrics address %s: %w", addr, err)
	}
	server, err := httpapi.NewServer(httpapi.Config{
		Gatherer: metrics.Registry(),
		Listener: ln,
	})
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	serveCtx, cancel := stdcontext.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Run(serveCtx); err != nil {
			logger.Warn("metrics server stopped", "err", err)
		}
	}()
	logger.Debug("serving metrics", "addr", server.Addr())

	return func() {
		cancel()
		<-done
	}, nil
}
