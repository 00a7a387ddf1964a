package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hovercard/pkg/entity"
	"github.com/matzehuels/hovercard/pkg/errors"
	"github.com/matzehuels/hovercard/pkg/ref"
	"github.com/matzehuels/hovercard/pkg/render"
)

const cardTimeout = 30 * time.Second

// cardCommand creates the card command.
func (c *CLI) cardCommand() *cobra.Command {
	var (
		kind   string
		asHTML bool
	)
	cmd := &cobra.Command{
		Use:   "card <reference>",
		Short: "Fetch and print the card for one reference",
		Long: `Fetch an entity and print its card once every supplementary request has
finished.

References use the canonical forms:
  octocat                       user
  octocat/Hello-World           repository
  octocat/Hello-World#42        issue or pull request
  octocat/Hello-World:1234567   issue comment
  octocat/Hello-World@7fd1a60   commit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReference(kind, args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cardTimeout)
			defer cancel()

			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			principal := ""
			if tok, _ := e.tokens.Get(ctx); tok != nil {
				principal = tok.Login
			}
			orch := entity.NewOrchestrator(e.github, entity.Options{
				Principal: principal,
				ReadMe:    e.opts.ReadMe,
				Tokens:    e.tokens,
				Logger:    c.Logger,
			})
			renderer, err := render.NewRenderer()
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(ctx, "Loading "+id.String()+"...")
			spinner.Start()
			rec, err := orch.Resolve(ctx, id)
			if err != nil {
				spinner.Stop()
				return err
			}
			unsubscribe := rec.Subscribe(func(s entity.Snapshot) {
				if s.Pending > 0 {
					spinner.Update(fmt.Sprintf("Loading %s (%d pending)...", id, s.Pending))
				}
			})
			defer unsubscribe()

			select {
			case <-rec.Done():
				spinner.Stop()
			case <-ctx.Done():
				spinner.StopWithError("Timed out")
				return ctx.Err()
			}

			snap := rec.Snapshot()
			viewer := render.Viewer{Principal: principal, HasToken: e.tokens.Token(ctx) != ""}
			if asHTML {
				out, err := renderer.Card(snap, viewer)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderer.Text(snap, viewer))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "reference kind (user, repo, issue, comment, commit); inferred when empty")
	cmd.Flags().BoolVar(&asHTML, "html", false, "print the card markup instead of terminal output")
	_ = cmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions(
		[]string{"user", "repo", "issue", "comment", "commit"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func parseReference(kind, s string) (ref.ID, error) {
	var (
		id  ref.ID
		err error
	)
	if err := errors.ValidateReference(s); err != nil {
		return ref.ID{}, err
	}
	if kind == "" {
		id, err = ref.ParseAny(s)
	} else {
		k, kerr := ref.ParseKind(kind)
		if kerr != nil {
			return ref.ID{}, errors.Wrap(errors.ErrCodeInvalidInput, kerr, "invalid --kind")
		}
		id, err = ref.Parse(k, s)
	}
	if err != nil {
		return ref.ID{}, errors.Wrap(errors.ErrCodeInvalidReference, err, "invalid reference %q", s)
	}
	return id, nil
}
