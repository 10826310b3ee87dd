package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"krogercart/internal/app"
	"krogercart/internal/observability"
)

// authCommand returns the 'auth' subcommand for managing Kroger
// authentication.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Kroger authentication",
		Commands: []*cli.Command{
			authLoginCommand(),
		},
	}
}

// authLoginCommand returns the 'auth login' subcommand: run the token
// flow without touching the cart.
func authLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Kroger and save credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "Kroger API environment (PROD|CERT)",
				Value: string(app.DefaultConfigEnvironment),
			},
			&cli.StringFlag{
				Name:  "token-storage",
				Usage: "token storage backend (auto|file|keyring)",
				Value: string(app.DefaultConfigStorage),
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "print the consent URL and prompt for the code instead of opening a browser",
			},
		},
		Action: authLoginAction,
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.Instrument(cfg.SlogLevel(), string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	application, err := app.New(cfg, managerOptions(cmd)...)
	if err != nil {
		return err
	}

	if err := application.Authenticate(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Login Successful ===")
	fmt.Println("Tokens saved to configured storage")

	return nil
}

// promptAuthorize is the --no-browser authorization step: the user
// visits the consent URL themselves and pastes the code back.
func promptAuthorize(ctx context.Context, consentURL string) (string, error) {
	fmt.Println("=== Kroger OAuth Login ===")
	fmt.Println()
	fmt.Printf("1. Visit this URL in your browser:\n   %s\n\n", consentURL)
	fmt.Println("2. Authorize the application")
	fmt.Println("3. Paste the authorization code")

	code, err := readSecureInput(ctx, "\nEnter authorization code: ")
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", fmt.Errorf("authorization code cannot be empty")
	}

	return code, nil
}

// readSecureInput reads user input with hidden display and context
// cancellation support. Goroutine+select pattern required because
// term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
