package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List themes, backgrounds and stock images",
	Args:  cobra.NoArgs,
	RunE:  runThemes,
}

func init() {
	rootCmd.AddCommand(themesCmd)
}

func runThemes(cmd *cobra.Command, args []string) error {
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "THEME\tNAME\tHEADINGS\tDESCRIPTION")
	for _, t := range cat.Themes {
		mark := ""
		if t.ID == cat.DefaultTheme {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\n", t.ID, mark, t.Name, t.HeadingStyle, t.Description)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "BACKGROUND\tNAME\tCOLOR\t")
	for _, b := range cat.Backgrounds {
		mark := ""
		if b.ID == cat.DefaultBackground {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t\n", b.ID, mark, b.Name, b.Color)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "STOCK IMAGE\tCAPTION\t\t")
	for _, s := range cat.StockImages {
		fmt.Fprintf(tw, "%s\t%s\t\t\n", s.ID, s.Alt)
	}
	return tw.Flush()
}
