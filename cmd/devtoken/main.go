// Command devtoken mints identity tokens for local development.
//
// The server accepts them when DEV_TOKEN_SECRET is set and APP_ENV is not
// production, which lets GraphiQL or curl act as a user without a Google
// sign-in:
//
//	DEV_TOKEN_SECRET=... devtoken --email ann@example.com --name Ann
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sakif/event-logger/internal/auth"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	conf := viper.New()

	cmd := &cobra.Command{
		Use:          "devtoken",
		Short:        "Mint a development identity token for the event-logger API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(conf, out)
		},
	}

	flags := cmd.Flags()
	flags.String("secret", "", "signing secret, must match the server's DEV_TOKEN_SECRET")
	flags.String("sub", "", "subject (stable user key); defaults to dev-<email>")
	flags.String("email", "", "email address of the user")
	flags.String("name", "", "display name of the user")
	flags.Duration("ttl", 24*time.Hour, "how long the token stays valid")

	conf.BindPFlags(flags)
	conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	conf.SetEnvPrefix("DEVTOKEN")
	conf.AutomaticEnv()
	conf.BindEnv("secret", "DEV_TOKEN_SECRET")

	return cmd
}

func run(conf *viper.Viper, out io.Writer) error {
	tokens, err := auth.NewDevTokens(conf.GetString("secret"))
	if err != nil {
		return err
	}

	id := auth.Identity{
		Subject: conf.GetString("sub"),
		Email:   conf.GetString("email"),
		Name:    conf.GetString("name"),
	}
	if id.Subject == "" && id.Email != "" {
		id.Subject = "dev-" + id.Email
	}
	if !id.Complete() {
		return fmt.Errorf("devtoken: --email and --name are required")
	}

	token, err := tokens.Mint(id, conf.GetDuration("ttl"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
