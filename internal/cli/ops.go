package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/kitties/internal/kitty"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Mint a new kitty",
		Long: `Mint a new kitty owned by the caller.

The caller pays the registry price to the holding account. The name is
at most 8 bytes.

Example:
  kitties create --as alice tom`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return mint(rootOpts, cmd, "create failed", name, func(ctx context.Context, a *app, caller kitty.Principal, n kitty.Name) (kitty.ID, error) {
				return a.registry.Create(ctx, caller, n)
			})
		},
	}
}

// NewBreedCommand creates the breed command.
func NewBreedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "breed <parent1> <parent2> [name]",
		Short: "Breed two kitties into a new one",
		Long: `Breed a new kitty from two existing ones.

The child's dna mixes both parents under a fresh selector. The caller
pays the registry price to the holding account and owns the child.

Example:
  kitties breed --as alice 0 1 kit`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p1, err := parseID(args[0])
			if err != nil {
				return err
			}
			p2, err := parseID(args[1])
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 3 {
				name = args[2]
			}
			return mint(rootOpts, cmd, "breed failed", name, func(ctx context.Context, a *app, caller kitty.Principal, n kitty.Name) (kitty.ID, error) {
				return a.registry.Breed(ctx, caller, p1, p2, n)
			})
		},
	}
}

// NewTransferCommand creates the transfer command.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <id> <to>",
		Short: "Give a kitty to another principal",
		Long: `Give a kitty to another principal. Only the owner may transfer.

Example:
  kitties transfer --as alice 2 bob`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutate(rootOpts, cmd, "transfer failed", id, func(ctx context.Context, a *app, caller kitty.Principal) error {
				to, err := kitty.NewPrincipal(args[1])
				if err != nil {
					return err
				}
				return a.registry.Transfer(ctx, caller, to, id)
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "Offer a kitty for sale",
		Long: `Offer a kitty for sale at the registry price. Only the owner may list.

Example:
  kitties list --as bob 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutate(rootOpts, cmd, "list failed", id, func(ctx context.Context, a *app, caller kitty.Principal) error {
				return a.registry.List(ctx, caller, id)
			})
		},
	}
}

// NewPurchaseCommand creates the purchase command.
func NewPurchaseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purchase <id>",
		Short: "Buy a listed kitty",
		Long: `Buy a listed kitty. The registry price moves from the caller to the
owner, and the kitty moves to the caller.

Example:
  kitties purchase --as carol 2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return mutate(rootOpts, cmd, "purchase failed", id, func(ctx context.Context, a *app, caller kitty.Principal) error {
				return a.registry.Purchase(ctx, caller, id)
			})
		},
	}
}

// mint runs a create or breed and prints the new record.
func mint(
	opts *RootOptions,
	cmd *cobra.Command,
	message, rawName string,
	fn func(context.Context, *app, kitty.Principal, kitty.Name) (kitty.ID, error),
) error {
	f := opts.formatter(cmd)
	caller, err := opts.caller()
	if err != nil {
		return f.Fail(message, err)
	}
	name, err := kitty.ParseName(rawName)
	if err != nil {
		return f.Fail(message, err)
	}

	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		id, err := fn(ctx, a, caller, name)
		if err != nil {
			return f.Fail(message, err)
		}
		f.VerboseLog("minted kitty %d", id)
		return show(ctx, f, a, id)
	})
}

// mutate runs an operation on an existing record and prints it afterwards.
func mutate(
	opts *RootOptions,
	cmd *cobra.Command,
	message string,
	id kitty.ID,
	fn func(context.Context, *app, kitty.Principal) error,
) error {
	f := opts.formatter(cmd)
	caller, err := opts.caller()
	if err != nil {
		return f.Fail(message, err)
	}

	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		if err := fn(ctx, a, caller); err != nil {
			return f.Fail(message, err)
		}
		return show(ctx, f, a, id)
	})
}

func show(ctx context.Context, f *OutputFormatter, a *app, id kitty.ID) error {
	e, err := a.registry.Entry(ctx, id)
	if err != nil {
		return f.Fail("show failed", err)
	}
	return f.Success(viewOf(e))
}
