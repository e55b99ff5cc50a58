package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/store"
	"github.com/xenking/storefront/internal/repository"
)

var demoProducts = []product.Draft{
	{
		Name:     "Masala Chai",
		Category: "Tea",
		Price:    decimal.NewFromInt(60),
		Sizes:    []string{"Small", "Large"},
		Stock:    product.UnlimitedStock,
	},
	{
		Name:     "Kashmiri Kahwa",
		Category: "Tea",
		Price:    decimal.RequireFromString("85.50"),
		Stock:    40,
	},
	{
		Name:        "Samosa",
		Category:    "Snacks",
		Price:       decimal.NewFromInt(25),
		Description: "Potato and pea filling",
		Tags:        []string{"vegetarian"},
		Stock:       120,
	},
	{
		Name:     "Gift Hamper",
		Category: "Gifts",
		Price:    decimal.NewFromInt(999),
		Colors:   []string{"Red", "Gold"},
		Stock:    5,
	},
}

func main() {
	var (
		databaseURL string
		ownerID     string
		whatsapp    string
		jwtSecret   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&ownerID, "owner-id", "demo-merchant", "owner id of the seeded store")
	flag.StringVar(&whatsapp, "whatsapp", "+91 98765 43210", "WhatsApp number receiving demo orders")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "secret used to issue a merchant token (or STOREFRONT_JWT_SECRET env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if jwtSecret == "" {
		jwtSecret = os.Getenv("STOREFRONT_JWT_SECRET")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, ownerID, whatsapp, jwtSecret); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, ownerID, whatsapp, jwtSecret string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	stores := store.NewService(repository.NewStoreRepository(pool))
	products := product.NewService(repository.NewProductRepository(pool), stores)

	st, created, err := seedStore(ctx, stores, ownerID, whatsapp)
	if err != nil {
		return errors.Wrap(err, "seed store")
	}
	if created {
		if err := seedProducts(ctx, products, st); err != nil {
			return errors.Wrap(err, "seed products")
		}
	}
	if jwtSecret != "" {
		if err := issueToken(ownerID, jwtSecret); err != nil {
			return errors.Wrap(err, "issue merchant token")
		}
	}
	return nil
}

// seedStore returns the owner's first store, creating it when the owner
// has none. Products are only seeded into a newly created store.
func seedStore(ctx context.Context, stores *store.Service, ownerID, whatsapp string) (*store.Store, bool, error) {
	existing, err := stores.List(ctx, ownerID)
	if err != nil {
		return nil, false, errors.Wrap(err, "list stores")
	}
	if len(existing) > 0 {
		st := existing[0]
		slog.Info("store already seeded", slog.String("id", st.ID), slog.String("slug", st.Slug))
		return &st, false, nil
	}

	st, err := stores.Create(ctx, ownerID, store.CreateParams{
		Name:           "Demo Chai Corner",
		WhatsAppNumber: whatsapp,
		Currency:       "INR",
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "create store")
	}
	slog.Info("created store", slog.String("id", st.ID), slog.String("slug", st.Slug))
	return st, true, nil
}

func seedProducts(ctx context.Context, products *product.Service, st *store.Store) error {
	slog.Info("creating products", slog.Int("count", len(demoProducts)))

	for _, d := range demoProducts {
		p, err := products.CreateFor(ctx, st, d)
		if err != nil {
			return errors.Wrapf(err, "create product %s", d.Name)
		}

		slog.Info("created product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func issueToken(ownerID, secret string) error {
	tokens, err := auth.NewTokens(auth.Config{Secret: secret, Issuer: "storefront"})
	if err != nil {
		return err
	}
	token, err := tokens.Issue(ownerID)
	if err != nil {
		return err
	}
	slog.Info("issued merchant token", slog.String("owner_id", ownerID), slog.String("token", token))
	return nil
}
