package admincli

import (
	"strconv"

	"github.com/spf13/cobra"

	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/pointers"
	"github.com/yungbote/shopfront-backend/internal/services"
)

var bannerHeader = []string{"ID", "TITLE", "POSITION", "ACTIVE", "LINK"}

func bannerRow(b *types.Banner) []string {
	return []string{b.ID.String(), b.Title, strconv.Itoa(b.Position), yesNo(b.IsActive), b.LinkURL}
}

func (cli *CLI) bannersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "banners",
		Aliases: []string{"banner"},
		Short:   "Manage homepage banners",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all banners",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.client()
			if err != nil {
				return err
			}
			items, err := c.ListBanners(cmd.Context())
			if err != nil {
				return err
			}
			return cli.emit(items, bannerHeader, func() [][]string {
				rows := make([][]string, 0, len(items))
				for _, b := range items {
					rows = append(rows, bannerRow(b))
				}
				return rows
			})
		},
	}

	var in services.BannerInput
	var inactive bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a banner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inactive {
				in.IsActive = pointers.Ptr(false)
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			b, err := c.CreateBanner(cmd.Context(), in)
			if err != nil {
				return err
			}
			return cli.emit(b, bannerHeader, func() [][]string { return [][]string{bannerRow(b)} })
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "banner title")
	create.Flags().StringVar(&in.ImageURL, "image-url", "", "image URL")
	create.Flags().StringVar(&in.LinkURL, "link-url", "", "click-through URL")
	create.Flags().IntVar(&in.Position, "position", 0, "sort position")
	create.Flags().BoolVar(&inactive, "inactive", false, "create hidden")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a banner",
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
			if err := c.DeleteBanner(cmd.Context(), id); err != nil {
				return err
			}
			cli.printf("deleted banner %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, create, del)
	return cmd
}
