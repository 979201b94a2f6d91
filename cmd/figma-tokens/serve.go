package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	figmatokens "github.com/hellenic-development/figma-tokens"
	"github.com/hellenic-development/figma-tokens/pkg/host"
	"github.com/hellenic-development/figma-tokens/pkg/mcpserver"
	"github.com/hellenic-development/figma-tokens/pkg/source"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the exporter to a host application over WebSocket",
		Long:  "Accept host connections on /ws and answer get-collections and export-tokens messages until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := openSource()
			if err != nil {
				return err
			}
			return serveHTTP(cmd.Context(), src)
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:7766", "Listen address")
	cmd.Flags().StringSlice("allowed-origins", nil, "Origins allowed to connect, as scheme://host[:port] (\"*\" allows any)")
	return cmd
}

func serveHTTP(ctx context.Context, src source.Source) error {
	opts := runOptions()
	session := func(ctx context.Context, conn host.Conn) error {
		return figmatokens.Serve(ctx, conn, src, opts)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", host.Handler(session, host.HandlerOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pterm.Info.Printf("Listening on ws://%s/ws\n", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		pterm.Info.Println("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	pterm.Success.Println("Server stopped cleanly")
	return nil
}

func stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve a host over newline-delimited JSON on stdin and stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := openSource()
			if err != nil {
				return err
			}
			return figmatokens.Serve(cmd.Context(), host.NewStream(os.Stdin, os.Stdout), src, runOptions())
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve list_collections and export_tokens as MCP tools on stdin and stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, title, err := openSource()
			if err != nil {
				return err
			}
			srv := mcpserver.NewServer(src, title, runOptions(), mcpserver.Defaults{
				Collections: cfg.Export.Collections,
				Formats:     cfg.Export.Formats,
				Types:       cfg.Export.Types,
			})
			return srv.ServeStdio()
		},
	}
}
