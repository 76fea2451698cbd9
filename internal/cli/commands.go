package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pushp314/crova-storefront/internal/apperrors"
	"github.com/pushp314/crova-storefront/internal/catalog"
	"github.com/pushp314/crova-storefront/internal/checkout"
	"github.com/pushp314/crova-storefront/internal/session"
)

// money renders a minor-unit amount for the terminal.
func money(amount int64) string {
	return fmt.Sprintf("₹%d.%02d", amount/100, amount%100)
}

func (a *App) fail(err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintln(a.out, "error:", appErr.Message)
		for field, msg := range appErr.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", field, msg)
		}
		return
	}
	fmt.Fprintln(a.out, "error:", err)
}

// --- auth ---

func (a *App) cmdLogin(ctx context.Context) {
	email, err := promptLine(a.reader, "email", a.out)
	if err != nil {
		return
	}
	password, err := promptPassword("password", a.out)
	if err != nil {
		return
	}
	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "signed in as %s\n", user.Name)
}

func (a *App) cmdRegister(ctx context.Context) {
	name, err := promptLine(a.reader, "name", a.out)
	if err != nil {
		return
	}
	email, err := promptLine(a.reader, "email", a.out)
	if err != nil {
		return
	}
	password, err := promptPassword("password", a.out)
	if err != nil {
		return
	}
	confirm, err := promptPassword("confirm password", a.out)
	if err != nil {
		return
	}

	user, err := a.session.Register(ctx, session.RegisterInput{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		a.fail(err)
		return
	}
	if user == nil {
		fmt.Fprintln(a.out, "account created, check your email to confirm")
		return
	}
	fmt.Fprintf(a.out, "welcome, %s\n", user.Name)
}

func (a *App) cmdForgotPassword(ctx context.Context) {
	email, err := promptLine(a.reader, "email", a.out)
	if err != nil {
		return
	}
	if err := a.session.ForgotPassword(ctx, email); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "if that address exists, a reset link is on its way")
}

func (a *App) cmdResetPassword(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: reset <token>")
		return
	}
	password, err := promptPassword("new password", a.out)
	if err != nil {
		return
	}
	confirm, err := promptPassword("confirm password", a.out)
	if err != nil {
		return
	}
	if err := a.session.ResetPassword(ctx, args[0], password, confirm); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "password updated, sign in with it")
}

// --- catalog ---

func (a *App) cmdBrowse(ctx context.Context, args []string) {
	params := catalog.ListParams{}
	if len(args) > 0 {
		params.Category = args[0]
	}
	list, err := a.catalog.Products(ctx, params)
	if err != nil {
		a.fail(err)
		return
	}
	a.printProducts(list.Products)
	if list.Pages > 1 {
		fmt.Fprintf(a.out, "page %d of %d (%d products)\n", list.Page, list.Pages, list.Total)
	}
}

func (a *App) cmdCollections(ctx context.Context) {
	collections, err := a.catalog.Collections(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	for _, c := range collections {
		fmt.Fprintf(a.out, "%-24s %s\n", c.Slug, c.Name)
	}
}

func (a *App) cmdSearch(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: search <terms>")
		return
	}
	products, err := a.search.Search(ctx, strings.Join(args, " "))
	if err != nil {
		a.fail(err)
		return
	}
	if len(products) == 0 {
		fmt.Fprintln(a.out, "no matches")
		return
	}
	a.printProducts(products)
}

func (a *App) cmdRecent() {
	recent := a.search.Recent()
	if len(recent) == 0 {
		fmt.Fprintln(a.out, "no recent searches")
		return
	}
	for _, q := range recent {
		fmt.Fprintln(a.out, " ", q)
	}
}

func (a *App) cmdProduct(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: product <slug>")
		return
	}
	p, err := a.catalog.Product(ctx, args[0])
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "%s  %s\n", p.Name, money(p.Price))
	if p.Description != "" {
		fmt.Fprintln(a.out, p.Description)
	}
	for _, v := range p.Variants {
		stock := "in stock"
		if v.Stock == 0 {
			stock = "out of stock"
		}
		fmt.Fprintf(a.out, "  %-12s %s / %s  %s\n", v.ID, v.Size, v.Color, stock)
	}
	if p.NumReviews > 0 {
		fmt.Fprintf(a.out, "rated %.1f by %d buyers\n", p.Rating, p.NumReviews)
	}
	if reviews, err := a.catalog.Reviews(ctx, p.ID); err == nil {
		for _, r := range reviews {
			fmt.Fprintf(a.out, "  [%d/5] %s: %s\n", r.Rating, r.UserName, r.Comment)
		}
	}
}

func (a *App) printProducts(products []catalog.Product) {
	for _, p := range products {
		mark := " "
		if a.wishlist.Contains(p.ID) {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %-28s %-10s %s\n", mark, p.Slug, money(p.Price), p.Name)
	}
}

func (a *App) cmdDesignInquiry(ctx context.Context) {
	name, err := promptLine(a.reader, "name", a.out)
	if err != nil {
		return
	}
	email, err := promptLine(a.reader, "email", a.out)
	if err != nil {
		return
	}
	message, err := promptLine(a.reader, "what are you looking for", a.out)
	if err != nil {
		return
	}
	if err := a.catalog.SubmitDesignInquiry(ctx, catalog.DesignInquiry{
		Name:    name,
		Email:   email,
		Message: message,
	}); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "inquiry sent, the studio will reach out")
}

// --- cart ---

func (a *App) cmdCart(ctx context.Context) {
	c, err := a.cart.Get(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	if len(c.Items) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	for _, it := range c.Items {
		name := it.VariantID
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(a.out, "  %dx %-30s (%s)\n", it.Quantity, name, it.VariantID)
	}
	fmt.Fprintf(a.out, "subtotal: %s\n", money(c.Subtotal()))
}

func (a *App) cmdCartAdd(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: add <variant> [qty]")
		return
	}
	qty := 1
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			qty = n
		}
	}
	if _, err := a.cart.Add(ctx, args[0], qty); err != nil {
		if !errors.Is(err, apperrors.ErrSignInRequired) {
			a.fail(err)
		}
	}
}

func (a *App) cmdCartQty(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "usage: qty <variant> <n>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintln(a.out, "quantity must be a number")
		return
	}
	if _, err := a.cart.UpdateQuantity(ctx, args[0], n); err != nil {
		a.fail(err)
	}
}

func (a *App) cmdCartRemove(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: remove <variant>")
		return
	}
	if _, err := a.cart.Remove(ctx, args[0]); err != nil {
		a.fail(err)
	}
}

// --- wishlist ---

func (a *App) cmdWishlist(ctx context.Context) {
	items, err := a.wishlist.Items(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "wishlist is empty")
		return
	}
	for _, it := range items {
		name := it.ProductID
		if it.Product != nil {
			name = fmt.Sprintf("%s  %s", it.Product.Name, money(it.Product.Price))
		}
		fmt.Fprintf(a.out, "  %s (%s)\n", name, it.ProductID)
	}
}

func (a *App) cmdWishToggle(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: wish <product>")
		return
	}
	if err := a.wishlist.Toggle(ctx, args[0]); err != nil {
		if !errors.Is(err, apperrors.ErrSignInRequired) {
			a.fail(err)
		}
	}
}

// --- checkout ---

func (a *App) cmdCheckout(ctx context.Context) {
	flow := checkout.NewFlow(a.apiC, a.cart, a.session, a.gateway(), a.notifier, a.logger)

	if err := flow.Begin(ctx); err != nil {
		if !errors.Is(err, apperrors.ErrSignInRequired) {
			a.fail(err)
		}
		return
	}

	if !a.promptAddress(ctx, flow) {
		return
	}

	method, err := promptLine(a.reader, "payment [online/cod]", a.out)
	if err != nil {
		return
	}
	switch strings.ToLower(method) {
	case "cod":
		_ = flow.SetPaymentMethod(checkout.PaymentCOD)
	default:
		_ = flow.SetPaymentMethod(checkout.PaymentOnline)
	}

	order, err := flow.Submit(ctx)
	if err != nil {
		a.fail(err)
		if errors.Is(err, apperrors.ErrPaymentFailed) {
			fmt.Fprintln(a.out, "your cart is untouched, run checkout to try again")
		}
		return
	}
	fmt.Fprintf(a.out, "order %s placed, total %s\n", order.ID, money(order.Total))
}

// promptAddress offers saved addresses first, then falls back to manual
// entry. Returns false when the user bails out.
func (a *App) promptAddress(ctx context.Context, flow *checkout.Flow) bool {
	if saved, err := flow.SavedAddresses(ctx); err == nil && len(saved) > 0 {
		fmt.Fprintln(a.out, "saved addresses:")
		for _, addr := range saved {
			fmt.Fprintf(a.out, "  %-10s %s, %s %s\n", addr.ID, addr.Line1, addr.City, addr.PostalCode)
		}
		choice, err := promptLine(a.reader, "address id (blank for new)", a.out)
		if err != nil {
			return false
		}
		if choice != "" {
			if err := flow.UseSavedAddress(ctx, choice); err != nil {
				a.fail(err)
				return false
			}
			return true
		}
	}

	var addr checkout.Address
	fields := []struct {
		label string
		dst   *string
	}{
		{"name", &addr.Name},
		{"phone", &addr.Phone},
		{"address line 1", &addr.Line1},
		{"address line 2 (optional)", &addr.Line2},
		{"city", &addr.City},
		{"state", &addr.State},
		{"postal code", &addr.PostalCode},
		{"country (2 letters)", &addr.Country},
	}
	for _, f := range fields {
		v, err := promptLine(a.reader, f.label, a.out)
		if err != nil {
			return false
		}
		*f.dst = v
	}

	if err := flow.SetAddress(addr); err != nil {
		a.fail(err)
		return false
	}
	return true
}

// --- orders ---

func (a *App) cmdOrders(ctx context.Context) {
	orders, err := a.orders.List(ctx)
	if err != nil {
		a.fail(err)
		return
	}
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "no orders yet")
		return
	}
	for _, o := range orders {
		fmt.Fprintf(a.out, "  %-12s %-12s %s\n", o.ID, o.Status, money(o.Total))
	}
}

func (a *App) cmdTrack(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: track <order>")
		return
	}
	tr, err := a.orders.Track(ctx, args[0])
	if err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintf(a.out, "%s: %s", tr.OrderID, tr.Status)
	if tr.TrackingNumber != "" {
		fmt.Fprintf(a.out, " (%s %s)", tr.Carrier, tr.TrackingNumber)
	}
	fmt.Fprintln(a.out)
	for _, ev := range tr.Events {
		fmt.Fprintf(a.out, "  %-20s %-12s %s\n", ev.Timestamp, ev.Status, ev.Location)
	}
}

// --- reviews ---

func (a *App) cmdReview(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: review <product>")
		return
	}
	ratingStr, err := promptLine(a.reader, "rating (1-5)", a.out)
	if err != nil {
		return
	}
	rating, err := strconv.Atoi(ratingStr)
	if err != nil {
		fmt.Fprintln(a.out, "rating must be a number")
		return
	}
	comment, err := promptLine(a.reader, "comment", a.out)
	if err != nil {
		return
	}
	if err := a.catalog.SubmitReview(ctx, args[0], catalog.ReviewInput{Rating: rating, Comment: comment}); err != nil {
		a.fail(err)
		return
	}
	fmt.Fprintln(a.out, "thanks for the review")
}
