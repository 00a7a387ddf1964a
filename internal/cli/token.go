package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hovercard/pkg/integrations/github"
	"github.com/matzehuels/hovercard/pkg/token"
)

const loginTimeout = 5 * time.Minute

// tokenCommand creates the token command with subcommands.
func (c *CLI) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the GitHub access token",
		Long: `Cards for private repositories, follow and star actions, and a higher API
rate limit all need an access token.

The token is stored under ~/.config/hovercard/state, or in redis with --redis.
GITHUB_TOKEN seeds the store when no token is saved.`,
	}

	cmd.AddCommand(c.tokenSetCommand())
	cmd.AddCommand(c.tokenShowCommand())
	cmd.AddCommand(c.tokenClearCommand())
	cmd.AddCommand(c.tokenLoginCommand())

	return cmd
}

// tokenSetCommand creates the "token set" subcommand.
func (c *CLI) tokenSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [token]",
		Short: "Save an access token, prompting when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := newPrinter(cmd.OutOrStdout())
			e, err := c.open(ctx, newTeaPrompter())
			if err != nil {
				return err
			}
			defer e.Close()

			value := ""
			if len(args) == 1 {
				value = args[0]
				if err := e.tokens.Set(ctx, value, ""); err != nil {
					return err
				}
			} else {
				value, err = e.tokens.Prompt(ctx, "Paste a personal access token with the read:user and public_repo scopes.")
				if err != nil {
					return err
				}
				if value == "" {
					out.info("No token entered")
					return nil
				}
			}
			return c.verifyToken(ctx, out, e, value)
		},
	}
}

// verifyToken looks up the token's owner and records it with the token.
func (c *CLI) verifyToken(ctx context.Context, out printer, e *env, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	spinner := newSpinnerWithContext(ctx, "Verifying token...")
	spinner.Start()
	user, err := e.github.CurrentUser(ctx)
	if err != nil {
		spinner.Stop()
		out.warn("Token saved but could not be verified: %v", err)
		return nil
	}
	if err := e.tokens.Set(ctx, value, user.Login); err != nil {
		spinner.Stop()
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Token saved for @%s", user.Login))
	return nil
}

// tokenShowCommand creates the "token show" subcommand.
func (c *CLI) tokenShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored token (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := newPrinter(cmd.OutOrStdout())
			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			tok, err := e.tokens.Get(ctx)
			if err != nil {
				return err
			}
			if tok == nil {
				out.info("No token stored")
				out.hint("Add one", appName+" token set")
				return nil
			}
			out.field("Token", token.Mask(tok.Value))
			if tok.Login != "" {
				out.field("User", "@"+tok.Login)
			}
			if !tok.SavedAt.IsZero() {
				out.field("Saved", humanize.Time(tok.SavedAt))
			}
			return nil
		},
	}
}

// tokenClearCommand creates the "token clear" subcommand.
func (c *CLI) tokenClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.tokens.Clear(ctx); err != nil {
				return fmt.Errorf("clear token: %w", err)
			}
			newPrinter(cmd.OutOrStdout()).success("Token removed")
			return nil
		},
	}
}

// tokenLoginCommand creates the "token login" subcommand.
func (c *CLI) tokenLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Obtain a token with the GitHub device flow",
		Long: `Start the GitHub device authorization flow.

You'll be given a code to enter at https://github.com/login/device.
Once authorized, the token is saved like one added with 'token set'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx, nil)
			if err != nil {
				return err
			}
			defer e.Close()
			return c.runDeviceLogin(ctx, newPrinter(cmd.OutOrStdout()), e)
		},
	}
}

// =============================================================================
// Device Flow Login
// =============================================================================

func (c *CLI) runDeviceLogin(ctx context.Context, out printer, e *env) error {
	oauthClient := github.NewOAuthClient(github.OAuthConfig{ClientID: os.Getenv("GITHUB_CLIENT_ID")})

	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	deviceResp, err := oauthClient.RequestDeviceCode(loginCtx)
	if err != nil {
		return fmt.Errorf("request device code: %w", err)
	}

	out.blank()
	out.title("Authorize hovercard on GitHub")
	out.blank()
	out.field("Code", StyleNumber.Render(deviceResp.UserCode))
	out.field("Enter at", StyleLink.Render(deviceResp.VerificationURI))
	out.blank()

	if err := openBrowser(deviceResp.VerificationURI); err != nil {
		out.detail("Open the address above and enter the code")
	} else {
		out.detail("Opened the address in your browser")
	}
	out.pending("Waiting for the code to be entered...")

	tok, err := oauthClient.PollForToken(loginCtx, deviceResp.DeviceCode, deviceResp.Interval)
	out.blank()
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := e.tokens.Set(ctx, tok.AccessToken, ""); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return c.verifyToken(ctx, out, e, tok.AccessToken)
}

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
