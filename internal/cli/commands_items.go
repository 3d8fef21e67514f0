package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/gateway/ifood"
)

func newItemsCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	var (
		restaurantRef string
		query         string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List menu items of a restaurant, optionally filtered by name.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withSession(ctx, deps, cmd, *flags, func(ctx context.Context, page ifood.Page, sess *ifood.Session) error {
				restaurant, err := resolveRestaurant(ctx, deps, page, sess, restaurantRef)
				if err != nil {
					if errors.Is(err, ifood.ErrNotFound) {
						return emitError(cmd, *flags, "IFOOD_RESTAURANT_NOT_FOUND", "no restaurant matched: "+restaurantRef)
					}
					return emitUpstreamError(cmd, *flags, err)
				}

				catalog, err := deps.IFood.Catalog(ctx, sess, restaurant.ID, ifood.CatalogOptions{
					Page: page,
					URL:  restaurant.URL,
				})
				if err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}

				items := ifood.ExtractMenuItems(catalog, query, limit)
				lines := make([]string, 0, len(items))
				for _, item := range items {
					lines = append(lines, menuItemLine(item))
				}
				title := "Items at " + restaurant.Name + ":"
				if restaurant.Name == "" {
					title = "Items:"
				}
				if len(items) == 0 {
					title = "No items found."
				}
				return writeResult(cmd, *flags, title, lines, items)
			})
		},
	}

	cmd.Flags().StringVarP(&restaurantRef, "restaurant", "r", "", "Restaurant to inspect: a public iFood url or a search query.")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Only list items whose name contains this term.")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of items to list.")
	_ = cmd.MarkFlagRequired("restaurant")
	return cmd
}
