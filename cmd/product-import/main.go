// Command product-import loads local CSV catalogs into stores using the
// same row mapping as the Google Sheets sync.
//
//	product-import -import <store-id>=products.csv.gz [-import <store-id>=more.csv]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/sheet"
	"github.com/xenking/storefront/internal/domain/store"
	"github.com/xenking/storefront/internal/repository"
)

const maxParallel = 4

// job imports one file into one store.
type job struct {
	storeID string
	path    string
}

// jobs collects repeated -import flags.
type jobs []job

func (j *jobs) String() string {
	parts := make([]string, len(*j))
	for i, v := range *j {
		parts[i] = v.storeID + "=" + v.path
	}
	return strings.Join(parts, ",")
}

func (j *jobs) Set(v string) error {
	storeID, path, ok := strings.Cut(v, "=")
	if !ok || storeID == "" || path == "" {
		return errors.Errorf("expected <store-id>=<file>, got %q", v)
	}
	*j = append(*j, job{storeID: storeID, path: path})
	return nil
}

func main() {
	var (
		databaseURL string
		imports     jobs
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Var(&imports, "import", "store id and .csv or .csv.gz file as <store-id>=<file>, repeatable")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if len(imports) == 0 {
		slog.Error("nothing to import: pass at least one -import <store-id>=<file>")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, imports); err != nil {
		slog.Error("product import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("product import completed successfully")
}

func run(ctx context.Context, databaseURL string, imports jobs) error {
	for _, j := range imports {
		if _, err := os.Stat(j.path); err != nil {
			return errors.Wrapf(err, "check file %s", j.path)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	var (
		productRepo = repository.NewProductRepository(pool)
		stores      = store.NewService(repository.NewStoreRepository(pool))
		products    = product.NewService(productRepo, stores)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, j := range imports {
		g.Go(func() error {
			st, err := stores.Get(ctx, j.storeID)
			if err != nil {
				return errors.Wrapf(err, "get store %s", j.storeID)
			}
			syncer := sheet.NewSyncer(stores, products, productRepo, &sheet.FileSource{Path: j.path})
			res, err := syncer.Sync(ctx, st)
			if err != nil {
				return errors.Wrapf(err, "import %s into %s", j.path, j.storeID)
			}
			for _, msg := range res.Errors {
				slog.Warn("row skipped", slog.String("store", j.storeID), slog.String("reason", msg))
			}
			slog.Info("imported file",
				slog.String("store", j.storeID),
				slog.String("path", j.path),
				slog.Int("synced", res.Synced),
				slog.Int("skipped", res.Skipped),
			)
			return nil
		})
	}
	return g.Wait()
}
