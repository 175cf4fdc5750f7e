package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ryanbastic/go-pagegrid/internal/content"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file]",
		Short: "Convert stored page content to the grid format",
		Long: `normalize reads a stored content value (a grid tree, a legacy flat
block list or anything else) and prints the equivalent grid tree as JSON.
The detected shape is written to stderr. With no file, stdin is read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			tree, shape := content.Inspect(raw)
			fmt.Fprintf(cmd.ErrOrStderr(), "shape: %s\n", shape)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tree)
		},
	}
}

func newRenderCmd() *cobra.Command {
	var (
		document    bool
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render page content to HTML",
		Long: `render normalizes a stored content value, sanitizes its rich text and
prints the HTML fragment. With --document a complete page is printed
instead. With no file, stdin is read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			tree := content.NewSanitizer().Sanitize(content.Normalize(raw))

			r := render.New()
			out := cmd.OutOrStdout()
			if document {
				_, err = out.Write(r.Document(render.Meta{Title: title, Description: description}, tree))
				return err
			}
			if err := r.WriteFragment(out, tree); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&document, "document", false, "print a complete HTML document")
	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&description, "description", "", "document meta description")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}
