package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/kitties/internal/funds"
	"github.com/roach88/kitties/internal/kitty"
	"github.com/roach88/kitties/internal/migration"
	"github.com/roach88/kitties/internal/store"
)

// MigrateResult is printed by the migrate command.
type MigrateResult struct {
	migration.Report
}

func (r MigrateResult) String() string {
	if !r.Upgraded() {
		return fmt.Sprintf("record layout already at %s", r.To)
	}
	return fmt.Sprintf("migrated %d records from %s to %s (reads=%d writes=%d)",
		r.Records, r.From, r.To, r.Weight.Reads, r.Weight.Writes)
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the stored record layout",
		Long: `Rewrite every stored record in the current layout.

Every other command migrates on open; migrate does it explicitly and
reports what changed. Running it on a current database is a no-op.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			st, err := store.Open(rootOpts.Config.DB, store.WithoutMigration())
			if err != nil {
				return f.Fail("failed to open registry", err)
			}
			defer st.Close()

			rep, err := st.Migrate(cmdContext(cmd))
			if err != nil {
				return f.Fail("migration failed", err)
			}
			return f.Success(MigrateResult{Report: rep})
		},
	}
}

// BalanceResult is printed by deposit and balance.
type BalanceResult struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

func (b BalanceResult) String() string {
	return fmt.Sprintf("%s: %d", b.Account, b.Balance)
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <account> <amount>",
		Short: "Credit an account in the funds ledger",
		Long: `Credit an account in the funds ledger.

Example:
  kitties deposit alice 100`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", args[1]))
			}
			return withFunds(cmd, rootOpts, args[0], func(ctx context.Context, l *funds.SQL, who kitty.Principal) error {
				return l.Deposit(ctx, who, kitty.Balance(amount))
			})
		},
	}
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "balance [account]",
		Short:         "Show an account balance (default: --as)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			account := rootOpts.As
			if len(args) == 1 {
				account = args[0]
			}
			return withFunds(cmd, rootOpts, account, nil)
		},
	}
}

// withFunds opens the funds ledger, applies fn if given, and prints the
// account balance.
func withFunds(cmd *cobra.Command, opts *RootOptions, account string, fn func(context.Context, *funds.SQL, kitty.Principal) error) error {
	f := opts.formatter(cmd)
	ctx := cmdContext(cmd)

	who, err := kitty.NewPrincipal(account)
	if err != nil {
		return f.Fail("invalid account", err)
	}
	ledger, err := funds.OpenSQL(opts.Config.FundsDB)
	if err != nil {
		return f.Fail("failed to open funds", err)
	}
	defer ledger.Close()

	if fn != nil {
		if err := fn(ctx, ledger, who); err != nil {
			return f.Fail("funds update failed", err)
		}
	}
	bal, err := ledger.Balance(ctx, who)
	if err != nil {
		return f.Fail("balance failed", err)
	}
	return f.Success(BalanceResult{Account: string(who), Balance: uint64(bal)})
}

// VersionResult is printed by the version command.
type VersionResult struct {
	Version string `json:"version"`
	Layout  string `json:"layout"`
}

func (v VersionResult) String() string {
	return fmt.Sprintf("kitties %s (record layout %s)", v.Version, v.Layout)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Success(VersionResult{
				Version: kitty.Version,
				Layout:  migration.Current.String(),
			})
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
