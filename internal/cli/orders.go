package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storefront/internal/cart"
	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/promise"
	"github.com/roach88/storefront/internal/shop"
)

// NewOrdersCommand creates the orders command.
func NewOrdersCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List the logged-in user's orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				v, err := s.run(cmd.Context(), shop.OpOrders, s.actions.Orders())
				if err != nil {
					return err
				}
				orders, _ := promise.Result[[]catalog.Order](v)
				orders = newestFirst(orders)
				return out.Success(orders, func(w io.Writer) {
					if len(orders) == 0 {
						fmt.Fprintln(w, "no orders")
						return
					}
					for _, o := range orders {
						writeOrder(w, o)
					}
				})
			})
		},
	}
}

// newestFirst orders by the numeric createdAt, descending. Orders with
// equal or unreadable timestamps keep reverse backend order.
func newestFirst(orders []catalog.Order) []catalog.Order {
	sorted := slices.Clone(orders)
	slices.Reverse(sorted)
	slices.SortStableFunc(sorted, func(a, b catalog.Order) int {
		return cmp.Compare(createdAt(b), createdAt(a))
	})
	return sorted
}

func createdAt(o catalog.Order) int64 {
	ms, err := strconv.ParseInt(o.CreatedAt, 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

func writeOrder(w io.Writer, o catalog.Order) {
	fmt.Fprintf(w, "%s\ttotal %.2f\n", o.ID, o.Total)
	for _, line := range o.OrderGoods {
		fmt.Fprintf(w, "  %d x %s @ %.2f\n", line.Count, line.Good.Name, line.Price)
	}
}

// CheckoutLine is one <goodID>[:count] argument.
type CheckoutLine struct {
	GoodID string
	Count  int
}

// ParseCheckoutLine parses "id" or "id:count". Count defaults to 1 and
// must be positive.
func ParseCheckoutLine(arg string) (CheckoutLine, error) {
	id, count, found := strings.Cut(arg, ":")
	if id == "" {
		return CheckoutLine{}, fmt.Errorf("empty good id in %q", arg)
	}
	line := CheckoutLine{GoodID: id, Count: 1}
	if !found {
		return line, nil
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 1 {
		return CheckoutLine{}, fmt.Errorf("invalid count in %q", arg)
	}
	line.Count = n
	return line, nil
}

// CheckoutResult reports a placed order with the cart total it was built
// from.
type CheckoutResult struct {
	CartTotal float64       `json:"cart_total"`
	Order     catalog.Order `json:"order"`
}

// NewCheckoutCommand creates the checkout command.
func NewCheckoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <goodID>[:count]...",
		Short: "Fill a cart with goods and order it",
		Long: `Look up every good, add it to the cart, and place the order.

The cart lives only for this command. Checkout needs a stored session
(see login).

Examples:
  storefront checkout good-sencha:2 good-halva`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := make([]CheckoutLine, 0, len(args))
			for _, arg := range args {
				line, err := ParseCheckoutLine(arg)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid argument", err)
				}
				lines = append(lines, line)
			}

			return withSession(cmd, opts, func(s *session, out *OutputFormatter) error {
				for _, line := range lines {
					v, err := s.run(cmd.Context(), shop.OpGoodByID, s.actions.GoodByID(line.GoodID))
					if err != nil {
						return err
					}
					good, _ := promise.Result[catalog.Good](v)
					s.store.Dispatch(cmd.Context(), cart.AddN(good, line.Count))
				}
				total := cart.Total(s.cart())

				v, err := s.run(cmd.Context(), shop.OpAddOrder, s.actions.Checkout())
				if err != nil {
					return err
				}
				order, _ := promise.Result[catalog.Order](v)
				result := CheckoutResult{CartTotal: total, Order: order}
				return out.Success(result, func(w io.Writer) {
					fmt.Fprintf(w, "cart total %.2f\n", total)
					writeOrder(w, order)
				})
			})
		},
	}
}
