package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pushp314/crova-storefront/internal/admin"
)

const adminHelpText = `admin commands:
  admin orders                    list all orders
  admin ship <order> <status>     set order status (PROCESSING/SHIPPED/DELIVERED/CANCELLED)
  admin products [page]           list products
  admin delete <product>          delete a product
  admin users                     list users
  admin settings                  show store settings
  admin audit [n]                 recent admin actions`

// cmdAdmin dispatches the admin console subcommands. The role check
// lives in the admin client; here we only parse.
func (a *App) cmdAdmin(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, adminHelpText)
		return
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "orders":
		orders, err := a.admin.Orders(ctx)
		if err != nil {
			a.fail(err)
			return
		}
		for _, o := range orders {
			fmt.Fprintf(a.out, "  %-12s %-12s %-8s %s\n", o.ID, o.Status, o.PaymentMethod, money(o.Total))
		}

	case "ship":
		if len(rest) < 2 {
			fmt.Fprintln(a.out, "usage: admin ship <order> <status>")
			return
		}
		if err := a.admin.UpdateOrderStatus(ctx, rest[0], rest[1]); err != nil {
			a.fail(err)
			return
		}
		fmt.Fprintln(a.out, "order updated")

	case "products":
		page := 0
		if len(rest) > 0 {
			page, _ = strconv.Atoi(rest[0])
		}
		list, err := a.admin.Products(ctx, page)
		if err != nil {
			a.fail(err)
			return
		}
		a.printProducts(list.Products)

	case "delete":
		if len(rest) == 0 {
			fmt.Fprintln(a.out, "usage: admin delete <product>")
			return
		}
		if err := a.admin.DeleteProduct(ctx, rest[0]); err != nil {
			a.fail(err)
			return
		}
		fmt.Fprintln(a.out, "product deleted")

	case "users":
		users, err := a.admin.Users(ctx)
		if err != nil {
			a.fail(err)
			return
		}
		for _, u := range users {
			fmt.Fprintf(a.out, "  %-12s %-8s %s\n", u.ID, u.Role, u.Email)
		}

	case "settings":
		s, err := a.admin.GetSettings(ctx)
		if err != nil {
			a.fail(err)
			return
		}
		a.printSettings(s)

	case "audit":
		limit := 20
		if len(rest) > 0 {
			if n, err := strconv.Atoi(rest[0]); err == nil {
				limit = n
			}
		}
		entries, err := a.admin.AuditLog(ctx, limit)
		if err != nil {
			a.fail(err)
			return
		}
		for _, e := range entries {
			fmt.Fprintf(a.out, "  %-20s %-12s %-20s %s\n", e.Timestamp, e.ActorID, e.Action, e.Target)
		}

	default:
		fmt.Fprintln(a.out, "unknown admin command:", sub)
	}
}

func (a *App) printSettings(s *admin.Settings) {
	fmt.Fprintf(a.out, "  store:       %s\n", s.StoreName)
	fmt.Fprintf(a.out, "  support:     %s\n", s.SupportEmail)
	fmt.Fprintf(a.out, "  currency:    %s\n", s.Currency)
	fmt.Fprintf(a.out, "  cod:         %t\n", s.CODEnabled)
	fmt.Fprintf(a.out, "  maintenance: %t\n", s.MaintenanceMode)
}
