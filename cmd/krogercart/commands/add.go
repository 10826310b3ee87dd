package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"krogercart/internal/app"
	"krogercart/internal/items"
	"krogercart/internal/observability"
	"krogercart/internal/tokensource"
)

// addCommand returns the 'add' subcommand: search for items and add the
// matches to the cart.
func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add grocery items to your cart",
		ArgsUsage: "[items.csv]",
		Description: "Items come from --items, --json, --stdin or a CSV file " +
			"(columns: query/name/upc, quantity).",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "items",
				Usage: "item names to search and add (repeatable)",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: `JSON array of items: [{"query": "milk", "quantity": 2}]`,
			},
			&cli.BoolFlag{
				Name:  "stdin",
				Usage: "read JSON array of items from stdin",
			},
			&cli.StringFlag{
				Name:  "zip",
				Usage: "zip code for store lookup",
				Value: app.DefaultConfigZip,
			},
			&cli.StringFlag{
				Name:  "chain",
				Usage: "store chain name",
				Value: app.DefaultConfigChain,
			},
			&cli.StringFlag{
				Name:  "modality",
				Usage: "fulfillment modality (DELIVERY|PICKUP)",
				Value: string(app.DefaultConfigModality),
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Kroger API environment (PROD|CERT)",
				Value: string(app.DefaultConfigEnvironment),
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "store location ID (skips zip lookup)",
			},
			&cli.StringFlag{
				Name:  "token-storage",
				Usage: "token storage backend (auto|file|keyring)",
				Value: string(app.DefaultConfigStorage),
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "output format (text|json)",
				Value: string(app.OutputFormatText),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "search for products but do not add them to the cart",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "print the consent URL and prompt for the code instead of opening a browser",
			},
		},
		Action: addAction,
	}
}

func addAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jsonOutput := app.OutputFormat(cmd.String("output")) == app.OutputFormatJSON

	// In JSON output mode only warnings reach the terminal, so stdout
	// stays machine-parseable.
	level := cfg.SlogLevel()
	if jsonOutput && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	if err := observability.Instrument(level, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	list, err := loadItems(cmd)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		if jsonOutput {
			printJSONError(fmt.Errorf("no items provided"))
			return cli.Exit("", 1)
		}
		return fmt.Errorf("no items provided (use --items, --json, --stdin or a CSV file)")
	}

	application, err := app.New(cfg, managerOptions(cmd)...)
	if err != nil {
		return err
	}

	result, err := application.Run(ctx, list, cmd.Bool("dry-run"))
	if err != nil {
		if jsonOutput {
			printJSONError(err)
			return cli.Exit("", 1)
		}
		return err
	}

	if jsonOutput {
		printJSONResult(result)
	} else {
		printTextSummary(result)
	}

	return nil
}

// managerOptions translates per-invocation flags into token manager options.
func managerOptions(cmd *cli.Command) []tokensource.Option {
	var opts []tokensource.Option
	if cmd.Bool("no-browser") {
		opts = append(opts, tokensource.WithAuthorize(promptAuthorize))
	}
	return opts
}

// loadItems resolves the shopping list from whichever input method was used.
func loadItems(cmd *cli.Command) ([]items.Item, error) {
	switch {
	case len(cmd.StringSlice("items")) > 0:
		return items.FromArgs(cmd.StringSlice("items")), nil
	case cmd.String("json") != "":
		return items.FromJSON(strings.NewReader(cmd.String("json")))
	case cmd.Bool("stdin"):
		return items.FromJSON(os.Stdin)
	case cmd.Args().Len() > 0:
		return items.FromFile(cmd.Args().First())
	default:
		return nil, nil
	}
}

// jsonResult is the machine-readable run summary.
type jsonResult struct {
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	DryRun        bool            `json:"dry_run"`
	Added         []app.AddedItem `json:"added"`
	NotFound      []string        `json:"not_found"`
	AddedCount    int             `json:"added_count"`
	NotFoundCount int             `json:"not_found_count"`
	Modality      string          `json:"modality"`
	LocationID    string          `json:"location_id"`
	CartURL       string          `json:"cart_url"`
}

func printJSONResult(result *app.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jsonResult{
		Success:       true,
		DryRun:        result.DryRun,
		Added:         result.Added,
		NotFound:      result.NotFound,
		AddedCount:    len(result.Added),
		NotFoundCount: len(result.NotFound),
		Modality:      string(result.Modality),
		LocationID:    result.LocationID,
		CartURL:       app.CartURL,
	})
}

func printJSONError(err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

func printTextSummary(result *app.Result) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	if result.DryRun {
		fmt.Println("SUMMARY (DRY RUN)")
	} else {
		fmt.Println("SUMMARY")
	}
	fmt.Println(strings.Repeat("=", 50))

	verb := "Successfully added"
	if result.DryRun {
		verb = "Would add"
	}
	fmt.Printf("\n%s (%d):\n", verb, len(result.Added))
	for _, item := range result.Added {
		fmt.Printf("  - %s (x%d)\n", item.Name, item.Quantity)
	}

	if len(result.NotFound) > 0 {
		fmt.Printf("\nNot found or failed (%d):\n", len(result.NotFound))
		for _, query := range result.NotFound {
			fmt.Printf("  - %s\n", query)
		}
	}

	if result.DryRun {
		fmt.Println("\nDry run complete - no items were added to the cart.")
	} else {
		fmt.Printf("\nView your cart: %s\n", app.CartURL)
		fmt.Println("(Complete checkout manually in your browser)")
	}
}
