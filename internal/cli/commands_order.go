package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mekedron/clifood/internal/domain"
	"github.com/mekedron/clifood/internal/gateway/ifood"
)

type orderResult struct {
	Restaurant domain.Restaurant `json:"restaurant" yaml:"restaurant"`
	Items      []ifood.CartItem  `json:"items" yaml:"items"`
	CartID     string            `json:"cartId,omitempty" yaml:"cartId,omitempty"`
	Confirmed  bool              `json:"confirmed" yaml:"confirmed"`
}

func newOrderCommand(deps Dependencies, flags *globalFlags) *cobra.Command {
	var (
		restaurantRef string
		itemSpecs     []string
		confirm       bool
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Build a cart at a restaurant and take it to checkout review.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			specs := make([]domain.ItemSpec, 0, len(itemSpecs))
			for _, raw := range itemSpecs {
				spec := domain.ParseItemSpec(raw)
				if spec.Name == "" {
					return emitError(cmd, *flags, "IFOOD_INVALID_ITEM", "item name is empty: "+raw)
				}
				specs = append(specs, spec)
			}

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

				cartItems, err := ifood.BuildCartItems(catalog, specs)
				if err != nil {
					if errors.Is(err, ifood.ErrNotFound) {
						return emitError(cmd, *flags, "IFOOD_ITEM_NOT_FOUND", err.Error())
					}
					return emitError(cmd, *flags, "IFOOD_INVALID_ITEM", err.Error())
				}

				cartResponse, err := deps.IFood.CreateCart(ctx, sess, ifood.CartMerchant{
					ID:   restaurant.ID,
					Name: restaurant.Name,
				}, cartItems, page)
				if err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}

				if err := deps.IFood.OpenCart(ctx, page); err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}
				if err := deps.IFood.OpenCheckout(ctx, page); err != nil {
					return emitUpstreamError(cmd, *flags, err)
				}

				confirmed := false
				if confirm {
					if err := deps.IFood.FinalizeOrder(ctx, page); err != nil {
						return emitError(cmd, *flags, "IFOOD_CONFIRM_FAILED", err.Error())
					}
					confirmed = true
				}

				result := orderResult{
					Restaurant: restaurant,
					Items:      cartItems,
					CartID:     ifood.CartID(cartResponse),
					Confirmed:  confirmed,
				}

				lines := []string{
					fmt.Sprintf("Restaurant: %s", restaurant.Name),
					fmt.Sprintf("Items in cart: %d", len(cartItems)),
				}
				if result.CartID != "" {
					lines = append(lines, "Cart id: "+result.CartID)
				}
				if confirmed {
					lines = append(lines, "Order confirmed.")
				} else {
					lines = append(lines, "Stopped at checkout review. Finish payment in the browser, or rerun with --confirm.")
				}
				title := "Order placed at checkout:"
				if confirmed {
					title = "Order confirmed:"
				}
				return writePlainResult(cmd, *flags, title, lines, result)
			})
		},
	}

	cmd.Flags().StringVarP(&restaurantRef, "restaurant", "r", "", "Restaurant to order from: a public iFood url or a search query.")
	cmd.Flags().StringArrayVarP(&itemSpecs, "item", "i", nil, "Item to order, optionally with quantity: \"name\", \"name x2\" or \"name: 2\" (repeatable).")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Click the final order confirmation button instead of stopping at checkout review.")
	_ = cmd.MarkFlagRequired("restaurant")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}
