package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitebook/backend/internal/usecase"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve provider identities for places that lack one",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resolved, err := a.places.ResolvePending(cmd.Context())
			out := cmd.OutOrStdout()

			var partial *usecase.ResolveError
			if errors.As(err, &partial) {
				fmt.Fprintf(out, "Resolved %d place(s), %d failed\n", resolved, len(partial.Failures))
				rows := make([][]string, 0, len(partial.Failures))
				for _, f := range partial.Failures {
					rows = append(rows, []string{f.PlaceID.String(), f.Err.Error()})
				}
				fmt.Fprintln(out, renderTable([]string{"Place", "Error"}, rows, nil, shouldColorize(out)))
				return fmt.Errorf("%d place(s) could not be resolved", len(partial.Failures))
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Resolved %d place(s)\n", resolved)
			return nil
		},
	}
}
