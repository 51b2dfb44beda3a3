package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/smartdoc/config"
	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/session"
)

var (
	flagMode  string
	flagLocal bool
	flagOut   string
)

var formatCmd = &cobra.Command{
	Use:   "format <input>",
	Short: "Structure raw text (or re-refine a document) into a SmartDoc document",
	Long: `Format sends the text of the input to the structuring service and writes the
normalized document as JSON. Input may be a text file, a JSON document or "-"
for stdin.

Modes: format-strict (default), polish, expand, shorten, fix.

Examples:
  smartdoc format notes.txt -o doc.json
  smartdoc format doc.json --mode shorten -o doc.json
  cat notes.md | smartdoc format - --local`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().StringVar(&flagMode, "mode", string(core.ModeFormatStrict), "Refine mode")
	formatCmd.Flags().BoolVar(&flagLocal, "local", false, "Structure offline without calling the service")
	formatCmd.Flags().StringVarP(&flagOut, "output", "o", "", "Output document path (default: stdout)")
}

func runFormat(cmd *cobra.Command, args []string) error {
	mode := core.Mode(flagMode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (one of %v)", flagMode, core.Modes)
	}
	doc, err := readInput(args[0])
	if err != nil {
		return err
	}
	if flagLocal {
		cfg.Structurer.Provider = config.ProviderLocal
	}

	wb, err := openWorkbench(doc)
	if err != nil {
		return err
	}
	defer wb.Close()

	out, err := wb.sess.Format(context.Background(), mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s\n", session.Describe(err, "", wb.sess.Lang()))
		return err
	}
	if err := writeDocument(flagOut, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ %s\n", session.Done(mode, wb.sess.Lang()))
	return nil
}

// writeDocument saves doc to path, or prints it when path is empty.
func writeDocument(path string, doc *model.Document) error {
	if path != "" {
		return model.Save(path, doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
