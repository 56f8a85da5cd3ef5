package admincli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/shopfront-backend/internal/adminclient"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/pointers"
	"github.com/yungbote/shopfront-backend/internal/services"
)

var productHeader = []string{"ID", "NAME", "CATEGORY", "PRICE", "DISC%", "STOCK", "SOLD", "ACTIVE"}

func productRow(p *types.Product) []string {
	return []string{
		p.ID.String(),
		p.Name,
		p.Category,
		vnd(p.Price),
		strconv.Itoa(p.DiscountPercent),
		strconv.Itoa(p.Stock),
		strconv.Itoa(p.Sold),
		yesNo(p.IsActive),
	}
}

func (cli *CLI) printProduct(p *types.Product) error {
	return cli.emit(p, productHeader, func() [][]string { return [][]string{productRow(p)} })
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func (cli *CLI) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Manage the product catalog",
	}
	cmd.AddCommand(
		cli.productsListCmd(),
		cli.productsCreateCmd(),
		cli.productsUpdateCmd(),
		cli.productsDeleteCmd(),
		cli.productsUploadImageCmd(),
	)
	return cmd
}

func (cli *CLI) productsListCmd() *cobra.Command {
	var opts adminclient.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, including inactive ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.client()
			if err != nil {
				return err
			}
			page, err := c.ListProducts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := cli.emit(page, productHeader, func() [][]string {
				rows := make([][]string, 0, len(page.Items))
				for _, p := range page.Items {
					rows = append(rows, productRow(p))
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
	cmd.Flags().StringVar(&opts.Query, "q", "", "search by name")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", services.DefaultPageLimit, "page size")
	return cmd
}

func (cli *CLI) productsCreateCmd() *cobra.Command {
	var in services.ProductInput
	var inactive bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Name == "" {
				return fmt.Errorf("--name is required")
			}
			if inactive {
				in.IsActive = pointers.Ptr(false)
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			p, err := c.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			return cli.printProduct(p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "product name")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&in.Category, "category", "", "category")
	f.StringVar(&in.Brand, "brand", "", "brand")
	f.Int64Var(&in.Price, "price", 0, "price in VND")
	f.IntVar(&in.DiscountPercent, "discount", 0, "discount percent (0-100)")
	f.IntVar(&in.Stock, "stock", 0, "units in stock")
	f.StringSliceVar(&in.Images, "image", nil, "image URL (repeatable)")
	f.BoolVar(&inactive, "inactive", false, "create hidden from the storefront")
	return cmd
}

func (cli *CLI) productsUpdateCmd() *cobra.Command {
	var (
		name, description, category, brand string
		price                              int64
		discount, stock                    int
		active                             bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			var patch services.ProductPatch
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("category") {
				patch.Category = &category
			}
			if f.Changed("brand") {
				patch.Brand = &brand
			}
			if f.Changed("price") {
				patch.Price = &price
			}
			if f.Changed("discount") {
				patch.DiscountPercent = &discount
			}
			if f.Changed("stock") {
				patch.Stock = &stock
			}
			if f.Changed("active") {
				patch.IsActive = &active
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			p, err := c.UpdateProduct(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return cli.printProduct(p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "product name")
	f.StringVar(&description, "description", "", "description")
	f.StringVar(&category, "category", "", "category")
	f.StringVar(&brand, "brand", "", "brand")
	f.Int64Var(&price, "price", 0, "price in VND")
	f.IntVar(&discount, "discount", 0, "discount percent (0-100)")
	f.IntVar(&stock, "stock", 0, "units in stock")
	f.BoolVar(&active, "active", true, "visible on the storefront")
	return cmd
}

func (cli *CLI) productsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a product",
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
			if err := c.DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			cli.printf("deleted product %s\n", id)
			return nil
		},
	}
}

func (cli *CLI) productsUploadImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <id> <file>",
		Short: "Upload an image and append it to the product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			c, err := cli.client()
			if err != nil {
				return err
			}
			p, err := c.UploadProductImage(cmd.Context(), id, args[1], f)
			if err != nil {
				return err
			}
			if cli.jsonOutput {
				return cli.printJSON(p)
			}
			for _, img := range p.Images {
				cli.printf("%s\n", img)
			}
			return nil
		},
	}
}
