package profile

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/cli/app"
	"github.com/afterdarksys/helpdesk/internal/models"
)

// NewCmd builds the profile command group
func NewCmd(a *app.App) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
		Long: `View and update the profile of the signed-in user.

Examples:
  # Show your profile
  helpdesk profile show

  # Update contact details
  helpdesk profile update --contact "+1 555 0100" --department Finance`,
	}
	profileCmd.AddCommand(newShowCmd(a))
	profileCmd.AddCommand(newUpdateCmd(a))
	return profileCmd
}

func newShowCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			st, err := a.SignedIn(ctx)
			if err != nil {
				return err
			}
			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(st.Profile)
			}
			return p.Fields([][2]string{
				{"Username", st.Profile.Username},
				{"Email", st.Profile.Email},
				{"Role", st.Role().DisplayName()},
				{"Department", st.Profile.Department},
				{"Access Level", st.Profile.AccessLevel},
			})
		},
	}
}

func newUpdateCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		Long: `Update profile fields. Only the flags given are changed.

Examples:
  helpdesk profile update --real-name "Dana Diaz"
  helpdesk profile update --access-level L2 --project-access-level read`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update models.ProfileUpdate
			for flag, dst := range map[string]**string{
				"contact":              &update.Contact,
				"department":           &update.Department,
				"real-name":            &update.RealName,
				"access-level":         &update.AccessLevel,
				"project-access-level": &update.ProjectAccessLevel,
			} {
				if cmd.Flags().Changed(flag) {
					v, _ := cmd.Flags().GetString(flag)
					*dst = &v
				}
			}
			if update.Empty() {
				return apiclient.NewError(apiclient.KindValidation, "Nothing to update.")
			}

			ctx, cancel := a.Context(cmd.Context())
			defer cancel()

			if _, err := a.SignedIn(ctx); err != nil {
				return err
			}
			token, err := a.Session.Token()
			if err != nil {
				return err
			}
			saved, err := a.Client.UpdateProfile(ctx, token, update)
			if apiclient.KindOf(err) == apiclient.KindSessionExpired {
				a.Session.Expire(ctx)
			}
			if err != nil {
				return err
			}

			p := a.Printer()
			if p.JSONMode() {
				return p.JSON(saved)
			}
			fmt.Fprintln(a.Out, "Profile updated.")
			return p.Fields([][2]string{
				{"Contact", saved.Contact},
				{"Department", saved.Department},
				{"Real Name", saved.RealName},
				{"Access Level", saved.AccessLevel},
				{"Project Access Level", saved.ProjectAccessLevel},
			})
		},
	}
	cmd.Flags().String("contact", "", "Contact number")
	cmd.Flags().String("department", "", "Department")
	cmd.Flags().String("real-name", "", "Full name")
	cmd.Flags().String("access-level", "", "Access level")
	cmd.Flags().String("project-access-level", "", "Project access level")
	return cmd
}
