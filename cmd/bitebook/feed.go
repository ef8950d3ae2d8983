package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bitebook/backend/internal/domain"
	"github.com/bitebook/backend/internal/usecase"
)

func newFeedCommand(ctx *commandContext) *cobra.Command {
	var (
		category string
		visited  string
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List tracked places",
		RunE: func(cmd *cobra.Command, args []string) error {
			visitedFilter, err := usecase.ParseVisited(visited)
			if err != nil {
				return err
			}

			a, err := ctx.buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			feed, err := a.feed.GetFeed(cmd.Context(), category, visitedFilter)
			if err != nil {
				return err
			}
			if len(feed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No places")
				return nil
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFeed(feed, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "type", "t", usecase.FeedAll, "Category to list (ALL, RESTAURANT, BAR, CAFE)")
	cmd.Flags().StringVar(&visited, "visited", "", "Only places with this visited flag (true/false)")
	return cmd
}

func renderFeed(feed []domain.Place, colorize bool) string {
	title := cases.Title(language.Und)

	rows := make([][]string, 0, len(feed))
	for _, p := range feed {
		category := "-"
		if p.Category != nil {
			category = title.String(strings.ToLower(string(*p.Category)))
		}
		rows = append(rows, []string{
			p.ID.String()[:8],
			p.Name,
			category,
			valueOr(p.Cuisine, "-"),
			flag(p.Visited),
			rating(p.Rating),
			valueOr(p.FullAddress, p.LocationText),
		})
	}

	return renderTable(
		[]string{"ID", "Name", "Type", "Cuisine", "Visited", "Rating", "Address"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		colorize,
	)
}

func flag(v *bool) string {
	switch {
	case v == nil:
		return "?"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

func rating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
