package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/smartdoc/core/model"
)

var (
	flagSetTitle    string
	flagSetSubtitle string
	flagSetAuthor   string
	flagUpdate      []string
	flagDelete      []int
	flagImage       string
	flagImageAlt    string
	flagStock       string
	flagAfter       int
	flagReset       bool
)

var editCmd = &cobra.Command{
	Use:   "edit <document.json>",
	Short: "Apply edits to a document in place",
	Long: `Edit applies field updates, section updates, deletions and image insertions
to a JSON document and writes it back (or to --output).

Edits run in this order: reset, fields, updates, deletions, image insertion.
List sections take "|"-separated items.

Examples:
  smartdoc edit doc.json --title "Q3 Report" --author "Finance"
  smartdoc edit doc.json --update "2=first | second" --delete 4
  smartdoc edit doc.json --stock books --after 1`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVar(&flagSetTitle, "title", "", "Set the title")
	editCmd.Flags().StringVar(&flagSetSubtitle, "subtitle", "", "Set the subtitle")
	editCmd.Flags().StringVar(&flagSetAuthor, "author", "", "Set the author")
	editCmd.Flags().StringArrayVar(&flagUpdate, "update", nil, "Replace section content: <index>=<text>")
	editCmd.Flags().IntSliceVar(&flagDelete, "delete", nil, "Delete sections by index (original numbering)")
	editCmd.Flags().StringVar(&flagImage, "image", "", "Insert an image section from a URL or file")
	editCmd.Flags().StringVar(&flagImageAlt, "alt", "", "Caption of the inserted image")
	editCmd.Flags().StringVar(&flagStock, "stock", "", "Insert a stock image by id (see 'smartdoc themes')")
	editCmd.Flags().IntVar(&flagAfter, "after", -1, "Insert the image after this section (default: append)")
	editCmd.Flags().BoolVar(&flagReset, "reset", false, "Replace the document with a blank one first")
	editCmd.Flags().StringVarP(&flagOut, "output", "o", "", "Output path (default: overwrite the input)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	doc, err := model.Load(args[0])
	if err != nil {
		return err
	}
	wb, err := openWorkbench(doc)
	if err != nil {
		return err
	}
	defer wb.Close()
	sess := wb.sess

	if flagReset {
		if err := sess.Reset(); err != nil {
			return err
		}
	}

	fields := []struct {
		name  string
		field model.Field
		value *string
	}{
		{"title", model.FieldTitle, &flagSetTitle},
		{"subtitle", model.FieldSubtitle, &flagSetSubtitle},
		{"author", model.FieldAuthor, &flagSetAuthor},
	}
	for _, f := range fields {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if err := sess.UpdateField(f.field, *f.value); err != nil {
			return err
		}
	}

	for _, u := range flagUpdate {
		i, text, err := parseUpdate(u)
		if err != nil {
			return err
		}
		if err := sess.UpdateSection(i, model.TextContent(text)); err != nil {
			return err
		}
	}

	// delete from the highest index so earlier indices stay valid
	deletes := slices.Clone(flagDelete)
	slices.Sort(deletes)
	deletes = slices.Compact(deletes)
	slices.Reverse(deletes)
	for _, i := range deletes {
		if err := sess.DeleteSection(i); err != nil {
			return err
		}
	}

	if flagImage != "" || flagStock != "" {
		if flagAfter >= 0 {
			if err := sess.SetFocus(model.Focus(flagAfter)); err != nil {
				return err
			}
		}
		var at int
		if flagStock != "" {
			if at, err = sess.InsertStockImage(flagStock); err != nil {
				return err
			}
		} else {
			if at, err = sess.InsertImage(flagImage, flagImageAlt); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "Inserted image at section %d\n", at)
	}

	out := flagOut
	if out == "" {
		out = args[0]
	}
	if err := model.Save(out, sess.Document()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", out)
	return nil
}

// parseUpdate splits an --update value of the form <index>=<text>.
func parseUpdate(u string) (int, string, error) {
	idx, text, ok := strings.Cut(u, "=")
	if !ok {
		return 0, "", fmt.Errorf("--update %q: expected <index>=<text>", u)
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return 0, "", fmt.Errorf("--update %q: bad index: %w", u, err)
	}
	return i, text, nil
}
