package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/matzehuels/hovercard/pkg/config"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/extract"
	"github.com/matzehuels/hovercard/pkg/scan"
)

// decorateCommand creates the decorate command.
func (c *CLI) decorateCommand() *cobra.Command {
	var (
		pageURL string
		list    bool
	)
	cmd := &cobra.Command{
		Use:   "decorate [file]",
		Short: "Mark entity references in page markup",
		Long: `Scan an HTML page for references and mark each one with its kind and
canonical identifier. Reads stdin when no file (or "-") is given.

The page URL supplies the context used to resolve relative links and bare
repository names.`,
		Example: `  curl -s https://github.com/octocat/Hello-World | hovercard decorate --url https://github.com/octocat/Hello-World
  hovercard decorate page.html --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, closeIn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeIn()

			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			prog := newProgress(c.Logger)
			res, err := decorate(ctx, in, pageURL, e.opts, c.Logger)
			if err != nil {
				return err
			}
			if res.Skipped {
				newPrinter(cmd.ErrOrStderr()).info("Project board page skipped (disable_projects is set)")
			}

			if list {
				fmt.Fprintln(cmd.OutOrStdout(), referenceTable(res.Targets))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), res.HTML)
			}
			prog.done(fmt.Sprintf("Decorated %d references", len(res.Targets)))
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "https://"+config.DefaultDomain+"/", "URL the page was served from")
	cmd.Flags().BoolVar(&list, "list", false, "print the detected references instead of the markup")
	return cmd
}

func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// decorated is the result of one decorate run.
type decorated struct {
	HTML    string
	Targets []extract.Target
	Skipped bool
}

// decorate runs the full-document scan over the markup in r.
func decorate(ctx context.Context, r io.Reader, rawURL string, opts config.Options, logger *log.Logger) (*decorated, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid page url")
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse page")
	}

	pc := extract.NewPageContext(doc, pageURL, opts)
	skipped := opts.DisableProjects && pc.ProjectBoard()
	scanner := scan.NewScanner(extract.DefaultRegistry(), extract.NewMarkers(), logger)
	w := scan.NewWatcher(scanner, doc.Nodes[0], pc, scan.Config{Disabled: skipped, Logger: logger})
	targets := w.Start(ctx)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc.Nodes[0]); err != nil {
		return nil, err
	}
	return &decorated{HTML: buf.String(), Targets: targets, Skipped: skipped}, nil
}

func referenceTable(targets []extract.Target) string {
	rows := make([][]string, 0, len(targets))
	for _, t := range targets {
		rows = append(rows, []string{t.ID.Kind.String(), t.ID.String()})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorLabel).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Kind", "Reference").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return styleKind(targets[row].ID.Kind)
			}
			return StyleValue
		}).
		Render()
}
