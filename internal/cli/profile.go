package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Levi-Ojukwu/todo-ui/internal/api"
	"github.com/Levi-Ojukwu/todo-ui/internal/model"
	"github.com/Levi-Ojukwu/todo-ui/internal/session"
	"github.com/Levi-Ojukwu/todo-ui/internal/upload"
)

func newProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change the display name, password or avatar",
	}

	cmd.AddCommand(newProfileUpdateCmd(a))
	cmd.AddCommand(newProfileAvatarCmd(a))

	return cmd
}

func newProfileUpdateCmd(a *App) *cobra.Command {
	var change model.ProfileChange

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the display name and/or password",
		Example: strings.TrimSpace(`
  todo-ui profile update --name "Ada Lovelace"
  todo-ui profile update --password s3cret --confirm-password s3cret
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				sess, ok := a.session.Current()
				if !ok {
					return session.ErrAnonymous
				}
				change.Name = strings.TrimSpace(change.Name)
				if change.Name == sess.User.Name {
					change.Name = ""
				}
				if err := change.Validate(); err != nil {
					return err
				}

				token, _ := a.session.Credential()
				if _, err := a.client.UpdateProfile(ctx, token, api.ProfileUpdate{
					Name:     change.Name,
					Password: change.NewPassword,
				}); err != nil {
					return err
				}
				if err := a.session.Refresh(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated successfully")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&change.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&change.NewPassword, "password", "", "New password")
	cmd.Flags().StringVar(&change.ConfirmPassword, "confirm-password", "", "New password again")

	return cmd
}

func newProfileAvatarCmd(a *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload a new profile image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if _, ok := a.session.Current(); !ok {
					return session.ErrAnonymous
				}

				file, err := upload.LoadFile(args[0])
				if err != nil {
					return err
				}

				flow := upload.NewFlow(a.client, a.session, upload.TempPreviewer{})
				defer flow.Close()

				if err := flow.SelectFile(file); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				snap := flow.Snapshot()
				fmt.Fprintf(out, "%s (%s, %s)\npreview: %s\n",
					file.Name, file.ContentType, humanize.Bytes(uint64(file.Size)), snap.Preview)

				for {
					if !yes {
						ok, err := confirmPrompt("Upload this image?")
						if err != nil {
							return err
						}
						if !ok {
							fmt.Fprintln(out, "Cancelled")
							return flow.Cancel()
						}
					}

					err := flow.Confirm(ctx)
					if err == nil {
						fmt.Fprintln(out, "Profile image updated")
						return nil
					}
					if flow.State() != upload.StateFailed || yes {
						return err
					}

					fmt.Fprintln(out, flow.Snapshot().ErrorMsg)
					retry, perr := confirmPrompt("Try again?")
					if perr != nil {
						return perr
					}
					if !retry {
						_ = flow.Cancel()
						return err
					}
					if err := flow.Retry(); err != nil {
						return err
					}
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Upload without asking")

	return cmd
}

func confirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
