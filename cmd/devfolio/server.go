package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/devfolio/internal/api"
	"github.com/kalambet/devfolio/internal/mockapi"
)

// --- mock-backend ---

var mockBackendCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Run a local fake of the projects backend",
	Long: `Run a local fake of the projects backend serving deterministic data.

Examples:
  devfolio mock-backend --port 5050
  devfolio mock-backend --secret s3cret
  devfolio mock-backend --secret s3cret --mint 665f1c2ab0e4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		port := cfg.Mock.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		secret := cfg.Mock.Secret
		if cmd.Flags().Changed("secret") {
			secret, _ = cmd.Flags().GetString("secret")
		}
		latency, _ := cmd.Flags().GetDuration("latency")
		mint, _ := cmd.Flags().GetString("mint")

		if mint != "" {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			token, err := mockapi.MintToken(secret, mint, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}

		setupLogging(cfg.Log.Level, stderr)
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
		return serveMockBackend(cmd.Context(), addr, mockapi.Options{Secret: secret, Latency: latency})
	},
}

func init() {
	mockBackendCmd.Flags().Int("port", 5050, "port to listen on")
	mockBackendCmd.Flags().String("secret", "", "require HS256 JWTs signed with this secret")
	mockBackendCmd.Flags().Duration("latency", 0, "delay every projects response")
	mockBackendCmd.Flags().String("mint", "", "print a token for this user id and exit")
	mockBackendCmd.Flags().Duration("ttl", 24*time.Hour, "lifetime of minted tokens")
}

// serveMockBackend runs the mock backend on addr until ctx is cancelled.
func serveMockBackend(ctx context.Context, addr string, opts mockapi.Options) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return serveMockListener(ctx, ln, opts)
}

func serveMockListener(ctx context.Context, ln net.Listener, opts mockapi.Options) error {
	srv := &http.Server{
		Handler:           mockapi.NewHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		printSuccess("Mock backend listening on http://%s", ln.Addr())
		if opts.Secret != "" {
			printStatus("Auth", "HS256 bearer tokens required")
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down mock backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve profile pages over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		// stdout carries the protocol.
		setupLogging(a.cfg.Log.Level, os.Stderr)

		view, err := a.newView(nil, nil)
		if err != nil {
			return err
		}
		defer view.Close()

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			View:    view,
			Session: a.session,
			Profile: a.profiles,
			History: a.store,
			WebURL:  a.cfg.View.WebURL,
		})
		slog.Info("MCP server started (stdio transport)")
		stdioSrv := server.NewStdioServer(mcpSrv)
		if err := stdioSrv.Listen(cmd.Context(), os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP stdio server: %w", err)
		}
		return nil
	},
}
