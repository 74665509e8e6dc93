package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/kitties/internal/entropy"
	"github.com/roach88/kitties/internal/funds"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/metrics"
	"github.com/roach88/kitties/internal/notify"
	"github.com/roach88/kitties/internal/registry"
	"github.com/roach88/kitties/internal/store"
)

// app is the wired registry a command runs against.
type app struct {
	store    *store.Store
	funds    *funds.SQL
	registry *registry.Registry
	gatherer prometheus.Gatherer
}

// openApp opens both databases and builds the registry from the
// resolved configuration.
func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg := opts.Config
	logger := slog.Default()

	var rnd registry.Randomness = entropy.System{}
	if cfg.Seed != "" {
		fixed, err := entropy.ParseFixed(cfg.Seed)
		if err != nil {
			return nil, err
		}
		rnd = fixed
	}

	logger.Debug("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	ledger, err := funds.OpenSQL(cfg.FundsDB)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open funds: %w", err)
	}

	promReg := prometheus.NewRegistry()
	reg, err := registry.New(ctx, st, registry.Config{
		Price:      kitty.Balance(cfg.Price),
		MaxID:      kitty.ID(cfg.MaxID),
		Holding:    kitty.Principal(cfg.Holding),
		Funds:      ledger,
		Randomness: rnd,
		Events:     notify.Logger{Log: logger},
	},
		registry.WithLogger(logger),
		registry.WithObserver(metrics.New(promReg)),
	)
	if err != nil {
		ledger.Close()
		st.Close()
		return nil, err
	}

	return &app{store: st, funds: ledger, registry: reg, gatherer: promReg}, nil
}

// close releases both databases, first printing metrics to w when asked.
func (a *app) close(w io.Writer, dumpMetrics bool) error {
	var errs []error
	if dumpMetrics {
		errs = append(errs, metrics.WriteText(w, a.gatherer))
	}
	errs = append(errs, a.funds.Close(), a.store.Close())
	return errors.Join(errs...)
}

// withApp runs fn against a freshly opened app and closes it afterwards.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *app) error) error {
	ctx := cmdContext(cmd)
	a, err := openApp(ctx, opts)
	if err != nil {
		return opts.formatter(cmd).Fail("failed to open registry", err)
	}
	defer func() {
		if cerr := a.close(cmd.ErrOrStderr(), opts.Metrics); cerr != nil {
			slog.Error("error closing databases", "error", cerr)
		}
	}()
	return fn(ctx, a)
}
