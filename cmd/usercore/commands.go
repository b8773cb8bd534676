package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"usercore/internal/fixtures"

	"github.com/spf13/cobra"
)

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "usercore",
		Short:         "Manage users and mark actions performed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// cobra checks required flags after the pre-run; storage must not be opened first
			if err := cmd.ValidateRequiredFlags(); err != nil {
				return err
			}
			return a.setup(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&a.storageDriver, "storage", "", "storage driver override (memory|sqlite|postgres)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&a.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(newSeedCommand(a), newLoadCommand(a), newMarkCommand(a), newListCommand(a))
	return cmd
}

func newSeedCommand(a *app) *cobra.Command {
	var (
		count   int
		fixture string
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate users and add them to storage",
		Long: `Generate users with random names, optionally save them as a fixture file in
the blob store, then add them to the data context in a single commit.

Example:
  usercore seed --count 10
  usercore seed --count 100 --fixture fixtures/users.json --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			users, err := fixtures.Generate(count, fixtures.Options{Seed: seed})
			if err != nil {
				return err
			}
			if fixture != "" {
				store, err := a.blobStore(ctx)
				if err != nil {
					return err
				}
				info, err := fixtures.Save(ctx, store, fixture, users)
				if err != nil {
					return err
				}
				a.log.Info("fixture saved", "key", info.Key, "driver", store.Driver(), "bytes", info.Size)
			}
			n, err := a.svc.Seed(ctx, users)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 10, "number of users to generate")
	cmd.Flags().StringVar(&fixture, "fixture", "", "blob key to save the generated fixture under")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for deterministic output (0 = random)")
	return cmd
}

func newLoadCommand(a *app) *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load users from a fixture file into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.blobStore(ctx)
			if err != nil {
				return err
			}
			users, err := fixtures.Load(ctx, store, fixture)
			if err != nil {
				return err
			}
			n, err := a.svc.Seed(ctx, users)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "loaded %d users from %s\n", n, fixture)
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "blob key of the fixture file (required)")
	_ = cmd.MarkFlagRequired("fixture")
	return cmd
}

func newMarkCommand(a *app) *cobra.Command {
	var firstname string
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Flag the first user with the given first name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.svc.MarkActionPerformed(cmd.Context(), firstname); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "marked %s\n", firstname)
			return nil
		},
	}
	cmd.Flags().StringVar(&firstname, "firstname", "", "first name to match (required)")
	_ = cmd.MarkFlagRequired("firstname")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print users in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.svc.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(users)
			case "text":
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tFIRSTNAME\tLASTNAME\tACTION PERFORMED")
				for _, u := range users {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", u.ID, u.Firstname, u.Lastname, u.SomeActionHasBeenPerformed)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("invalid format %q: must be one of text, json", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format (text|json)")
	return cmd
}
