// ABOUTME: Serve command running the collections API over a local backend
// ABOUTME: Starts the echo server and shuts it down gracefully when the context ends
package cli

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/innkeep/auth"
	"github.com/harperreed/innkeep/web"
)

const shutdownTimeout = 10 * time.Second

// ServeCommand serves the backend's store over HTTP until ctx is cancelled.
func ServeCommand(ctx context.Context, backend *Backend, defaultAddr string, logger *log.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", defaultAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if backend.Remote != nil {
		return errors.New("serve needs a local backend (sqlite, postgres, or charm)")
	}

	srv, err := web.NewServer(web.Options{
		Store:         backend.Store,
		Authenticator: backend.Authenticator,
		Validator:     auth.NewJWTValidator(backend.Secret),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving collections API", "addr", *addr)
		return srv.Start(*addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
