package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core/output"
	"github.com/gaurav-prasanna/smartdoc/core/session"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <document.json>",
	Short: "Re-export a document whenever it changes",
	Long: `Watch exports the document once, then again after every save until
interrupted. Format and presentation flags are those of export.

Example:
  smartdoc watch doc.json --html --output_dir ./preview`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addFormatFlags(watchCmd)
	watchCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default from config, then current directory)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}
	formats := selectFormats()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	wb, err := openWorkbench(nil)
	if err != nil {
		return err
	}
	defer wb.Close()
	writer, err := newWriter()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rebuild := func() {
		if err := reexport(ctx, wb, writer, path, formats); err != nil {
			log.Warn("Export failed", zap.String("path", path), zap.Error(err))
		}
	}
	rebuild()

	// Editors commonly replace the file on save, so watch its directory.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, rebuild)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			log.Debug("Document changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}

// reexport reloads the document from path and writes every format.
func reexport(ctx context.Context, wb *workbench, writer *output.Writer, path string, formats []session.Format) error {
	doc, err := readInput(path)
	if err != nil {
		return err
	}
	if err := wb.sess.SetDocument(doc); err != nil {
		return err
	}
	if err := observeHeight(ctx, wb); err != nil {
		return err
	}
	return exportAll(ctx, wb, writer, formats)
}
