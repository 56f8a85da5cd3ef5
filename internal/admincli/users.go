package admincli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/shopfront-backend/internal/adminclient"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/services"
)

var userHeader = []string{"ID", "EMAIL", "NAME", "ROLE", "BLOCKED", "CREATED"}

func userRow(u *types.User) []string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return []string{u.ID.String(), u.Email, name, u.Role, yesNo(u.IsBlocked), day(u.CreatedAt)}
}

func (cli *CLI) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage customer and admin accounts",
	}

	var opts adminclient.ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cli.client()
			if err != nil {
				return err
			}
			page, err := c.ListUsers(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := cli.emit(page, userHeader, func() [][]string {
				rows := make([][]string, 0, len(page.Items))
				for _, u := range page.Items {
					rows = append(rows, userRow(u))
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
	list.Flags().StringVar(&opts.Query, "q", "", "search by email or name")
	list.Flags().StringVar(&opts.Role, "role", "", "filter by role")
	list.Flags().IntVar(&opts.Page, "page", 1, "page number")
	list.Flags().IntVar(&opts.Limit, "limit", services.DefaultPageLimit, "page size")

	blocked := func(use, short string, value bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.updateUser(cmd, args[0], services.AdminUserUpdate{IsBlocked: &value})
			},
		}
	}

	role := &cobra.Command{
		Use:   "role <id> <customer|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := strings.ToLower(strings.TrimSpace(args[1]))
			if !types.IsValidRole(r) {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return cli.updateUser(cmd, args[0], services.AdminUserUpdate{Role: &r})
		},
	}

	cmd.AddCommand(
		list,
		blocked("block", "Block a user from logging in", true),
		blocked("unblock", "Lift a block", false),
		role,
	)
	return cmd
}

func (cli *CLI) updateUser(cmd *cobra.Command, rawID string, in services.AdminUserUpdate) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	c, err := cli.client()
	if err != nil {
		return err
	}
	u, err := c.UpdateUser(cmd.Context(), id, in)
	if err != nil {
		return err
	}
	return cli.emit(u, userHeader, func() [][]string { return [][]string{userRow(u)} })
}
