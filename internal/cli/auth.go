package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	"github.com/Levi-Ojukwu/todo-ui/internal/ui/profile"
)

func newRegisterCmd(a *App) *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if err := promptRegistration(&reg); err != nil {
					return err
				}
				if err := reg.Validate(); err != nil {
					return err
				}

				resp, err := a.client.Register(ctx, strings.TrimSpace(reg.Name), strings.TrimSpace(reg.Email), reg.Password)
				if err != nil {
					return err
				}
				user, err := a.startSession(resp)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(user))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reg.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&reg.ConfirmPassword, "confirm", "", "Password again (prompted when omitted)")

	return cmd
}

func newLoginCmd(a *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if err := promptLogin(&email, &password); err != nil {
					return err
				}

				resp, err := a.client.Login(ctx, strings.TrimSpace(email), password)
				if err != nil {
					return err
				}
				user, err := a.startSession(resp)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", displayName(user))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(context.Context) error {
				a.session.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(a *App) *cobra.Command {
	var refresh, asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if refresh {
					if err := a.session.Refresh(ctx); err != nil {
						return err
					}
				}
				sess, ok := a.session.Current()
				if !ok {
					return session.ErrAnonymous
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), sess.User)
				}
				fmt.Fprintln(cmd.OutOrStdout(), profile.Summary(sess, a.now()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-read the profile from the server first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the user as JSON")

	return cmd
}

// startSession stores the account returned by login or register.
func (a *App) startSession(resp *api.AuthResponse) (model.User, error) {
	user := session.UserFromAuth(resp, a.session.AssetBase())
	if err := a.session.Login(user, resp.Token); err != nil {
		return model.User{}, err
	}
	log.Info().Str("user", user.ID).Msg("signed in")
	return user, nil
}

func promptLogin(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password))
	}
	return runPrompt(fields)
}

func promptRegistration(reg *model.Registration) error {
	var fields []huh.Field
	if reg.Name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Value(&reg.Name))
	}
	if reg.Email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&reg.Email))
	}
	if reg.Password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&reg.Password))
	}
	if reg.ConfirmPassword == "" {
		fields = append(fields, huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&reg.ConfirmPassword))
	}
	return runPrompt(fields)
}

// runPrompt asks for fields on the terminal. Nothing is asked when every
// value came from flags.
func runPrompt(fields []huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func displayName(u model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
