package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

// defaultExcludeTerms filters the usual fast-food noise out of restaurant
// listings when --exclude-defaults is passed. Matching is diacritic and
// case insensitive, so "açaí" variants are listed spelled both ways people
// actually type them.
var defaultExcludeTerms = []string{
	"pizza",
	"hamburg",
	"hamburguer",
	"burger",
	"burguer",
	"lanches",
	"doce",
	"doces",
	"sobremesa",
	"sobremesas",
	"acai",
	"açai",
	"sorvete",
	"sorvetes",
	"bolo",
	"bolos",
}

func mergeExcludeTerms(explicit []string, includeDefaults bool) []string {
	if !includeDefaults {
		return explicit
	}
	merged := make([]string, 0, len(explicit)+len(defaultExcludeTerms))
	merged = append(merged, explicit...)
	merged = append(merged, defaultExcludeTerms...)
	return merged
}

func newRestaurantsCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	var (
		query           string
		limit           int
		exclude         []string
		excludeDefaults bool
		top             bool
	)

	cmd := &cobra.Command{
		Use:   "restaurants",
		Short: "List restaurants by search query, or aggregate recommendations with --top.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			excludeTerms := mergeExcludeTerms(exclude, excludeDefaults)

			return withSession(ctx, deps, cmd, *flags, func(ctx context.Context, page ifood.Page, sess *ifood.Session) error {
				var restaurants []domain.Restaurant
				var err error
				if top {
					restaurants, err = deps.IFood.TopRestaurants(ctx, sess, page, limit, excludeTerms)
				} else {
					restaurants, err = deps.IFood.SearchRestaurants(ctx, sess, query, limit, ifood.SearchOptions{
						Exclude: excludeTerms,
						Page:    page,
					})
				}
				if err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}

				lines := make([]string, 0, len(restaurants))
				for _, restaurant := range restaurants {
					lines = append(lines, restaurantLine(restaurant))
				}
				title := "Restaurants:"
				if top {
					title = "Top restaurants:"
				}
				if len(restaurants) == 0 {
					title = "No restaurants found."
				}
				return writeResult(cmd, *flags, title, lines, restaurants)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search query. Empty means a broad listing.")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of restaurants to list.")
	cmd.Flags().StringArrayVar(&exclude, "exclude", nil, "Exclude restaurants whose name or category contains this term (repeatable).")
	cmd.Flags().BoolVar(&excludeDefaults, "exclude-defaults", false, "Also apply the built-in exclusion list (pizza, burgers, desserts and similar).")
	cmd.Flags().BoolVar(&top, "top", false, "Aggregate recommended restaurants from the home feed and category pages instead of searching.")
	return cmd
}
