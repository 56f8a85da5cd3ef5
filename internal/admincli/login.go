package admincli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yungbote/shopfront-backend/internal/platform/envutil"
)

func (cli *CLI) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an admin and print the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = envutil.String("SHOPADMIN_PASSWORD", "", nil)
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or SHOPADMIN_PASSWORD) are required")
			}
			c, err := cli.client()
			if err != nil {
				return err
			}
			pair, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if cli.jsonOutput {
				return cli.printJSON(pair)
			}
			cli.printf("export SHOPADMIN_TOKEN=%s\n", pair.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}
