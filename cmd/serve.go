package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core/capture"
	"github.com/gaurav-prasanna/smartdoc/core/store"
	"github.com/gaurav-prasanna/smartdoc/server"
)

var (
	flagListen  string
	flagStore   string
	flagNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive editor over HTTP",
	Long: `Serve starts the editor. Opening the root URL creates a session and
redirects to its canvas, where text is edited in place and exported.
Sessions are persisted to SQLite unless --no-store is given.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&flagStore, "store", "", "Session database path (default from config)")
	serveCmd.Flags().BoolVar(&flagNoStore, "no-store", false, "Keep sessions in memory only")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := capture.New(cfg.Capture, log)
	defer func() {
		if err := browser.Close(); err != nil {
			log.Warn("Unable to close browser", zap.Error(err))
		}
	}()
	fetcher := newFetcher()
	if dir := cfg.Server.ImageRoot; dir != "" {
		root, err := os.OpenRoot(dir)
		if err != nil {
			return fmt.Errorf("opening image root: %w", err)
		}
		defer root.Close()
		fetcher.WithRoot(root)
	}
	opts, err := sessionOptions(browser, fetcher)
	if err != nil {
		return err
	}

	var st *store.Store
	if !flagNoStore {
		path := flagStore
		if path == "" {
			path = cfg.Server.StorePath
		}
		if st, err = store.Open(path, log); err != nil {
			return err
		}
		defer st.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	addr := flagListen
	if addr == "" {
		addr = cfg.Server.Listen
	}
	srv := server.New(server.Options{
		Session:  opts,
		Store:    st,
		Registry: reg,
		Log:      log,
	})
	return srv.Run(ctx, addr)
}
