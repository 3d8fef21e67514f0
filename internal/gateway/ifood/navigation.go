package ifood

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// finalizeButtonExpression finds and clicks the order confirmation button on
// the checkout page. Button labels vary by checkout step and experiment
// bucket, so several known labels are accepted.
const finalizeButtonExpression = `(() => {
	const pattern = /fazer pedido|confirmar pedido|finalizar pedido|finalizar compra/i;
	const buttons = Array.from(document.querySelectorAll("button"));
	const target = buttons.find((button) => pattern.test(button.textContent || ""));
	if (!target) {
		return false;
	}
	target.click();
	return true;
})()`

func (c *Client) settle(ctx context.Context) {
	if c.navigationSettle <= 0 {
		return
	}
	timer := time.NewTimer(c.navigationSettle)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// EnsureHome navigates the page to the home feed unless it is already there.
func (c *Client) EnsureHome(ctx context.Context, page Page) error {
	currentURL, err := page.URL(ctx)
	if err != nil {
		return fmt.Errorf("read page url: %w", err)
	}
	if strings.Contains(currentURL, "/inicio") {
		return nil
	}
	if err := page.Navigate(ctx, c.endpoints.HomePage); err != nil {
		return fmt.Errorf("open home page: %w", err)
	}
	c.settle(ctx)
	return nil
}

// OpenCart navigates the page to the cart review screen.
func (c *Client) OpenCart(ctx context.Context, page Page) error {
	if err := page.Navigate(ctx, c.endpoints.CartPage); err != nil {
		return fmt.Errorf("open cart page: %w", err)
	}
	c.settle(ctx)
	return nil
}

// OpenCheckout navigates the page to the checkout screen.
func (c *Client) OpenCheckout(ctx context.Context, page Page) error {
	if err := page.Navigate(ctx, c.endpoints.CheckoutPage); err != nil {
		return fmt.Errorf("open checkout page: %w", err)
	}
	c.settle(ctx)
	return nil
}

// FinalizeOrder clicks the checkout confirmation button on the current page.
// It fails when no recognizable confirmation button is present, which
// usually means a payment method still needs to be picked by hand.
func (c *Client) FinalizeOrder(ctx context.Context, page Page) error {
	var clicked bool
	if err := page.Evaluate(ctx, finalizeButtonExpression, &clicked); err != nil {
		return fmt.Errorf("click order confirmation: %w", err)
	}
	if !clicked {
		return fmt.Errorf("no order confirmation button found on current page")
	}
	c.settle(ctx)
	return nil
}
