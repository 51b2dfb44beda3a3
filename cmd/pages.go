package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:   "pages <document>",
	Short: "Show the page layout with resolved header and footer bands",
	Args:  cobra.ExactArgs(1),
	RunE:  runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)

	pagesCmd.Flags().Float64Var(&flagHeight, "height", 0, "Content height in CSS pixels")
	pagesCmd.Flags().BoolVar(&flagMeasure, "measure", false, "Measure content height in headless Chrome")
}

func runPages(cmd *cobra.Command, args []string) error {
	if flagHeight < 0 {
		return fmt.Errorf("--height must be positive")
	}
	doc, err := readInput(args[0])
	if err != nil {
		return err
	}
	wb, err := openWorkbench(doc)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := observeHeight(context.Background(), wb); err != nil {
		return err
	}
	layout := wb.sess.Layout()

	fmt.Fprintf(os.Stdout, "%d page(s), content %.0fpx, page %.0fpx\n\n",
		layout.PageCount(), layout.HeightPx, layout.PageHeightPx)
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tTOP\tBAND\tLEFT\tCENTER\tRIGHT")
	for _, p := range layout.Pages {
		if p.Header != nil {
			fmt.Fprintf(tw, "%d\t%.0f\theader\t%s\t%s\t%s\n", p.Number, p.TopPx, p.Header.Left, p.Header.Center, p.Header.Right)
		}
		if p.Footer != nil {
			fmt.Fprintf(tw, "%d\t%.0f\tfooter\t%s\t%s\t%s\n", p.Number, p.TopPx, p.Footer.Left, p.Footer.Center, p.Footer.Right)
		}
		if p.Header == nil && p.Footer == nil {
			fmt.Fprintf(tw, "%d\t%.0f\t-\t\t\t\n", p.Number, p.TopPx)
		}
	}
	return tw.Flush()
}
