// Package app wires configuration, token management and the API client
// into the cart workflow.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"krogercart/internal/items"
	"krogercart/internal/kroger"
	"krogercart/internal/tokensource"
)

// CartURL is where the user completes checkout manually.
const CartURL = "https://www.smithsfoodanddrug.com/cart"

// searchConcurrency bounds the parallel product searches.
const searchConcurrency = 4

// AddedItem is a product that was matched and added (or would be, in a
// dry run).
type AddedItem struct {
	Name     string `json:"name"`
	UPC      string `json:"upc"`
	Quantity int    `json:"quantity"`
	Query    string `json:"query"`
}

// Result summarizes one cart run.
type Result struct {
	Added      []AddedItem     `json:"added"`
	NotFound   []string        `json:"not_found"`
	LocationID string          `json:"location_id"`
	Modality   kroger.Modality `json:"modality"`
	DryRun     bool            `json:"dry_run"`
}

// App orchestrates authentication, product search and cart additions.
type App struct {
	cfg    *Config
	tokens *tokensource.Manager
	client *kroger.Client
}

// New creates an App from configuration. Manager options allow the
// caller to replace the browser-based authorization step.
func New(cfg *Config, managerOpts ...tokensource.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	slog.Info("token storage selected", "backend", fmt.Sprint(store))

	manager := tokensource.New(tokensource.Config{
		ClientID:     cfg.Kroger.ClientID,
		ClientSecret: cfg.Kroger.ClientSecret,
		RedirectURL:  cfg.Kroger.RedirectURL,
		Endpoint:     cfg.Kroger.Environment.OAuthEndpoint(),
		Scopes:       kroger.Scopes,
		ListenAddr:   cfg.Auth.ListenAddr,
	}, store, managerOpts...)

	return &App{
		cfg:    cfg,
		tokens: manager,
		client: kroger.NewClient(cfg.Kroger.Environment, manager),
	}, nil
}

// Authenticate runs the token flow without touching the cart.
func (a *App) Authenticate(ctx context.Context) error {
	if _, err := a.tokens.AccessToken(ctx); err != nil {
		return err
	}
	return nil
}

// Run searches for every item and batch-adds the matches to the cart.
// Searches run concurrently but results keep the input order. A batch
// add failure demotes all matched items to not-found rather than
// failing the run.
func (a *App) Run(ctx context.Context, list []items.Item, dryRun bool) (*Result, error) {
	locationID := a.cfg.Cart.LocationID
	if locationID == "" {
		loc, err := a.client.FindLocation(ctx, a.cfg.Cart.Zip, a.cfg.Cart.Chain)
		if err != nil {
			return nil, err
		}
		locationID = loc.LocationID
	}

	slog.InfoContext(ctx, "processing items",
		"count", len(list), "modality", a.cfg.Cart.Modality, "dry_run", dryRun)

	// Search phase: each item needs its own query, so searches fan out;
	// matches land at their input index to keep ordering stable.
	matches := make([]*AddedItem, len(list))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)

	for i, item := range list {
		g.Go(func() error {
			products, err := a.client.SearchProducts(gCtx, item.Term(), locationID)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				slog.InfoContext(gCtx, "no products found", "query", item.Term())
				return nil
			}

			product := products[0]
			slog.InfoContext(gCtx, "matched product",
				"query", item.Term(), "name", product.Description, "upc", product.UPC)
			matches[i] = &AddedItem{
				Name:     product.Description,
				UPC:      product.UPC,
				Quantity: item.Quantity,
				Query:    item.Term(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		LocationID: locationID,
		Modality:   a.cfg.Cart.Modality,
		DryRun:     dryRun,
		Added:      []AddedItem{},
		NotFound:   []string{},
	}
	for i, item := range list {
		if matches[i] == nil {
			result.NotFound = append(result.NotFound, item.Term())
			continue
		}
		result.Added = append(result.Added, *matches[i])
	}

	if dryRun || len(result.Added) == 0 {
		return result, nil
	}

	// Cart phase: one batched call for everything that matched.
	cartItems := make([]kroger.CartItem, 0, len(result.Added))
	for _, added := range result.Added {
		cartItems = append(cartItems, kroger.CartItem{UPC: added.UPC, Quantity: added.Quantity})
	}
	if err := a.client.AddToCart(ctx, cartItems, a.cfg.Cart.Modality); err != nil {
		slog.WarnContext(ctx, "batch cart add failed", "error", err)
		for _, added := range result.Added {
			result.NotFound = append(result.NotFound, added.Query)
		}
		result.Added = []AddedItem{}
		return result, nil
	}

	slog.InfoContext(ctx, "added items to cart", "count", len(result.Added))
	return result, nil
}
