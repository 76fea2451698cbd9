package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

const helpText = `commands:
  browse [category]      list products
  search <terms>         search the catalog
  recent                 recent search terms
  product <slug>         show one product
  collections            list collections
  cart                   show the cart
  add <variant> [qty]    add a variant to the cart
  qty <variant> <n>      change a line quantity
  remove <variant>       remove a cart line
  clear                  empty the cart
  wishlist               show the wishlist
  wish <product>         toggle a product on the wishlist
  checkout               place an order from the cart
  orders                 list past orders
  track <order>          track an order
  review <product>       review a product
  inquire                send a custom design inquiry
  login / register / logout
  forgot                 request a password reset link
  reset <token>          set a new password with a reset token
  admin                  admin console (ADMIN role)
  help / exit`

// Run restores the session and starts the command loop.
func (a *App) Run(ctx context.Context) {
	a.session.Restore(ctx)
	if u, ok := a.session.CurrentUser(); ok {
		fmt.Fprintf(a.out, "welcome back, %s\n", u.Name)
	}
	a.loop(ctx, bufio.NewScanner(a.reader))
}

func (a *App) loop(ctx context.Context, scanner *bufio.Scanner) {
	for {
		fmt.Fprintf(a.out, "crova [%s]> ", a.status())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, helpText)
		case "login":
			a.cmdLogin(ctx)
		case "register":
			a.cmdRegister(ctx)
		case "logout":
			a.session.Logout(ctx)
			fmt.Fprintln(a.out, "signed out")
		case "forgot":
			a.cmdForgotPassword(ctx)
		case "reset":
			a.cmdResetPassword(ctx, args)
		case "browse":
			a.cmdBrowse(ctx, args)
		case "collections":
			a.cmdCollections(ctx)
		case "search":
			a.cmdSearch(ctx, args)
		case "recent":
			a.cmdRecent()
		case "product":
			a.cmdProduct(ctx, args)
		case "cart":
			a.cmdCart(ctx)
		case "add":
			a.cmdCartAdd(ctx, args)
		case "qty":
			a.cmdCartQty(ctx, args)
		case "remove":
			a.cmdCartRemove(ctx, args)
		case "clear":
			if err := a.cart.Clear(ctx); err != nil {
				a.fail(err)
			} else {
				fmt.Fprintln(a.out, "cart cleared")
			}
		case "wishlist":
			a.cmdWishlist(ctx)
		case "wish":
			a.cmdWishToggle(ctx, args)
		case "checkout":
			a.cmdCheckout(ctx)
		case "orders":
			a.cmdOrders(ctx)
		case "track":
			a.cmdTrack(ctx, args)
		case "review":
			a.cmdReview(ctx, args)
		case "inquire":
			a.cmdDesignInquiry(ctx)
		case "admin":
			a.cmdAdmin(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(a.out, "bye")
			return
		default:
			fmt.Fprintln(a.out, "unknown command:", cmd, "(try help)")
		}

		// A 401 mid-command tears the session down; tell the user once.
		if a.session.AuthPromptOpen() {
			fmt.Fprintln(a.out, "sign in required: use login or register")
			a.session.CloseAuthPrompt()
		}
	}
}
