package admincli

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	types "github.com/yungbote/shopfront-backend/internal/domain"
)

func (cli *CLI) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.client()
			if err != nil {
				return err
			}
			s, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if cli.jsonOutput {
				return cli.printJSON(s)
			}

			rows := [][]string{
				{"users", strconv.FormatInt(s.Users, 10)},
				{"products", strconv.FormatInt(s.Products, 10)},
				{"orders", strconv.FormatInt(s.TotalOrders, 10)},
				{"revenue", vnd(s.Revenue)},
			}
			statuses := make([]string, 0, len(s.Orders))
			for st := range s.Orders {
				statuses = append(statuses, string(st))
			}
			sort.Strings(statuses)
			for _, st := range statuses {
				rows = append(rows, []string{"orders." + st, strconv.FormatInt(s.Orders[types.OrderStatus(st)], 10)})
			}
			if err := cli.table([]string{"METRIC", "VALUE"}, rows); err != nil {
				return err
			}

			if len(s.LowStock) > 0 {
				cli.printf("\nlow stock:\n")
				lrows := make([][]string, 0, len(s.LowStock))
				for _, p := range s.LowStock {
					lrows = append(lrows, []string{p.Name, strconv.Itoa(p.Stock)})
				}
				if err := cli.table([]string{"PRODUCT", "STOCK"}, lrows); err != nil {
					return err
				}
			}
			if len(s.BestSellers) > 0 {
				cli.printf("\nbest sellers:\n")
				brows := make([][]string, 0, len(s.BestSellers))
				for _, p := range s.BestSellers {
					brows = append(brows, []string{p.Name, strconv.Itoa(p.Sold)})
				}
				return cli.table([]string{"PRODUCT", "SOLD"}, brows)
			}
			return nil
		},
	}
}
