package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM. The
// signal is logged when logger is non-nil.
func SetupSignalHandler(logger *log.Logger) context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if logger == nil {
		return ctx
	}

	go func() {
		<-ctx.Done()
		stop()
		logger.Info("Received signal, shutting down gracefully")
	}()
	return ctx
}
