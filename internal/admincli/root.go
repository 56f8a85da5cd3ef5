package admincli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/shopfront-backend/internal/adminclient"
	"github.com/yungbote/shopfront-backend/internal/platform/shutdown"
)

// CLI carries the global flags shared by every subcommand.
type CLI struct {
	out io.Writer

	apiURL     string
	token      string
	jsonOutput bool
	timeout    time.Duration
}

// NewRootCmd builds the shopadmin command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	env := adminclient.OptionsFromEnv()
	cli := &CLI{out: out}

	root := &cobra.Command{
		Use:           "shopadmin",
		Short:         "Administer a shopfront deployment over its REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&cli.apiURL, "api-url", env.BaseURL, "API base URL (env SHOPADMIN_API_URL)")
	root.PersistentFlags().StringVar(&cli.token, "token", env.Token, "admin access token (env SHOPADMIN_TOKEN)")
	root.PersistentFlags().BoolVar(&cli.jsonOutput, "json", false, "print raw JSON instead of tables")
	root.PersistentFlags().DurationVar(&cli.timeout, "timeout", env.Timeout, "per-request timeout")

	root.AddCommand(
		cli.loginCmd(),
		cli.productsCmd(),
		cli.bannersCmd(),
		cli.ordersCmd(),
		cli.usersCmd(),
		cli.statsCmd(),
		cli.seedCmd(),
	)
	return root
}

func Execute() int {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()
	root := NewRootCmd(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (cli *CLI) client() (*adminclient.Client, error) {
	return adminclient.New(adminclient.Options{
		BaseURL:    cli.apiURL,
		Token:      cli.token,
		Timeout:    cli.timeout,
		MaxRetries: 2,
	})
}
