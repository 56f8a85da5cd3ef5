package admincli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/shopfront-backend/internal/adminclient"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/services"
)

var orderHeader = []string{"ID", "CODE", "STATUS", "PAYMENT", "METHOD", "TOTAL", "CREATED"}

func orderRow(o *types.Order) []string {
	return []string{
		o.ID.String(),
		o.Code,
		string(o.Status),
		string(o.PaymentStatus),
		string(o.PaymentMethod),
		vnd(o.TotalPrice),
		day(o.CreatedAt),
	}
}

func (cli *CLI) printOrder(o *types.Order) error {
	if cli.jsonOutput {
		return cli.printJSON(o)
	}
	if err := cli.table(orderHeader, [][]string{orderRow(o)}); err != nil {
		return err
	}
	cli.printf("\nship to: %s, %s, %s %s\n", o.Shipping.FullName, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City)
	if o.CancelReason != "" {
		cli.printf("cancel reason: %s\n", o.CancelReason)
	}
	if len(o.Items) == 0 {
		return nil
	}
	cli.printf("\n")
	rows := make([][]string, 0, len(o.Items))
	for _, it := range o.Items {
		rows = append(rows, []string{it.Name, strconv.Itoa(it.Quantity), vnd(it.UnitPrice), vnd(it.Subtotal)})
	}
	return cli.table([]string{"ITEM", "QTY", "UNIT PRICE", "SUBTOTAL"}, rows)
}

func (cli *CLI) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Inspect orders and move them through fulfilment",
	}

	var opts adminclient.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.client()
			if err != nil {
				return err
			}
			page, err := c.ListOrders(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := cli.emit(page, orderHeader, func() [][]string {
				rows := make([][]string, 0, len(page.Items))
				for _, o := range page.Items {
					rows = append(rows, orderRow(o))
				}
				return rows
			}); err != nil {
				return err
			}
			if !cli.jsonOutput {
				cli.printf("%s", pageFooter(page.Page, page.TotalPages, page.Total))
			}
			return nil
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "filter by order status")
	list.Flags().StringVar(&opts.PaymentStatus, "payment-status", "", "filter by payment status")
	list.Flags().StringVar(&opts.Query, "q", "", "search by order code")
	list.Flags().IntVar(&opts.Page, "page", 1, "page number")
	list.Flags().IntVar(&opts.Limit, "limit", services.DefaultPageLimit, "page size")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			o, err := c.GetOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cli.printOrder(o)
		},
	}

	var reason string
	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an order to a new status",
		Long:  "Move an order to a new status. Valid statuses: " + statusList() + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			next := types.OrderStatus(strings.ToLower(strings.TrimSpace(args[1])))
			if !types.IsValidOrderStatus(next) {
				return fmt.Errorf("unknown status %q (want one of %s)", args[1], statusList())
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			o, err := c.UpdateOrderStatus(cmd.Context(), id, next, reason)
			if err != nil {
				return err
			}
			return cli.printOrder(o)
		},
	}
	status.Flags().StringVar(&reason, "reason", "", "cancellation reason")

	cmd.AddCommand(list, get, status)
	return cmd
}

func statusList() string {
	all := types.AllOrderStatuses()
	out := make([]string, 0, len(all))
	for _, s := range all {
		out = append(out, string(s))
	}
	return strings.Join(out, ", ")
}
