package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/docsafe/internal/api"
	"github.com/mrlokans/docsafe/internal/authctx"
	"github.com/mrlokans/docsafe/internal/config"
	"github.com/mrlokans/docsafe/internal/session"
)

// LoginCommand signs in against the document service with an in-memory
// session and confirms the issued credential through /auth/me. It exercises
// the same sign-in path as the web form without a browser.
type LoginCommand struct {
	API      config.API
	Email    string
	Password string
}

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	lc := &LoginCommand{}
	cmd := &cobra.Command{
		Use:   "login --email EMAIL",
		Short: "Check credentials against the document service",
		Long: `Signs in with the given email and password, verifies the issued token and
prints the identity and the dashboard the portal would open.
The password is read from DOCSAFE_PASSWORD when --password is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc.API = cfg.API
			if lc.Password == "" {
				lc.Password = os.Getenv("DOCSAFE_PASSWORD")
			}
			return lc.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&lc.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&lc.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&cfg.API.BaseURL, "api-url", cfg.API.BaseURL, "Document service base URL")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (lc *LoginCommand) Run(ctx context.Context, out io.Writer) error {
	if lc.Password == "" {
		return errors.New("password is required")
	}

	client, err := api.NewClient(api.ConfigFrom(lc.API))
	if err != nil {
		return err
	}

	nav := &authctx.RecordingNavigator{}
	ac := authctx.New(session.NewStore(), session.NewMemoryStorage(), &session.MemoryCookies{}, nav,
		authctx.Options{Verifier: client.Auth})
	ctx = log.Logger.WithContext(api.WithCredentials(ctx, ac))

	sess, err := client.Auth.Login(ctx, api.LoginInput{Email: lc.Email, Password: lc.Password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := ac.Login(ctx, sess.Token, &sess.User); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ac.Verify(ctx) {
		return errors.New("issued token was not accepted by /auth/me")
	}

	identity := ac.Identity()
	dashboard, _ := nav.Last()
	_, err = fmt.Fprintf(out, "Signed in as %s <%s>\nRole:      %s\nDashboard: %s\n",
		identity.Name, identity.Email, identity.Role, dashboard)
	return err
}
