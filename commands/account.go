package commands

import (
	"errors"
	"fmt"

	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session for later commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if u, ok := c.CurrentUser(); ok {
				output.Info("Already logged in as %s. Run \"air logout\" first to switch.", u.Username)
				return nil
			}
			p := newPrompter(cmd)
			username, err := flagOrPrompt(cmd, p, "username", "Username: ", answerCredential)
			if err != nil {
				return err
			}
			password, err := flagOrPrompt(cmd, p, "password", "Password: ", answerSecret)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if err := c.Login(username, password); err != nil {
				return describe(err)
			}
			u, _ := c.CurrentUser()
			output.Success("Welcome back, %s", displayName(u))
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a reader account and log in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, ok := c.CurrentUser(); ok {
				c.Logout()
			}
			p := newPrompter(cmd)
			name, err := flagOrPrompt(cmd, p, "name", "Name: ", answerText)
			if err != nil {
				return err
			}
			username, err := flagOrPrompt(cmd, p, "username", "Username: ", answerCredential)
			if err != nil {
				return err
			}
			password, err := flagOrPrompt(cmd, p, "password", fmt.Sprintf("Choose a password for %s: ", username), answerSecret)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if err := c.Register(library.NewUser{Username: username, Password: password, Name: name}); err != nil {
				return describe(err)
			}
			output.Success("Account %s created, you are logged in", username)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			lm.Controller().Logout()
			output.Success("Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"profile"},
	Short:   "Show your profile, stats, favorites and recent reads",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			u, err := requireLogin(c)
			if err != nil {
				return err
			}
			printProfile(c, u)
			return nil
		})
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change your name, avatar, bio or weekly target",
	Long: `Change profile fields. Pass individual flags or a JSON object with --patch:

  air profile edit --bio "Night reader" --weekly-target 3
  air profile edit --patch '{"name":"Ana","avatar":"https://..."}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			patch, err := profilePatchFromFlags(cmd)
			if err != nil {
				return describe(err)
			}
			u, err := c.UpdateProfile(patch)
			if err != nil {
				return describe(err)
			}
			output.Success("Profile updated")
			printProfile(c, u)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	whoamiCmd.AddCommand(profileEditCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username (prompted when omitted)")
	loginCmd.Flags().String("password", "", "Password (prompted without echo when omitted)")

	registerCmd.Flags().StringP("username", "u", "", "Username (prompted when omitted)")
	registerCmd.Flags().String("name", "", "Display name (prompted when omitted)")
	registerCmd.Flags().String("password", "", "Password (prompted without echo when omitted)")

	profileEditCmd.Flags().String("patch", "", "JSON object with name, avatar, bio and/or weeklyTarget")
	profileEditCmd.Flags().String("name", "", "Display name")
	profileEditCmd.Flags().String("avatar", "", "Avatar image URL")
	profileEditCmd.Flags().String("bio", "", "Short bio")
	profileEditCmd.Flags().Int("weekly-target", 0, "Books to finish per week")
}

func profilePatchFromFlags(cmd *cobra.Command) (library.ProfilePatch, error) {
	var p library.ProfilePatch
	flags := cmd.Flags()
	if flags.Changed("patch") {
		raw, _ := flags.GetString("patch")
		parsed, err := library.ParseProfilePatch([]byte(raw))
		if err != nil {
			return p, err
		}
		p = parsed
	}
	for _, f := range []struct {
		name string
		dst  **string
	}{{"name", &p.Name}, {"avatar", &p.Avatar}, {"bio", &p.Bio}} {
		if flags.Changed(f.name) {
			v, _ := flags.GetString(f.name)
			*f.dst = &v
		}
	}
	if flags.Changed("weekly-target") {
		v, _ := flags.GetInt("weekly-target")
		p.WeeklyTarget = &v
	}
	if p == (library.ProfilePatch{}) {
		return p, errors.New("nothing to change: pass --patch or a field flag")
	}
	return p, nil
}

func printProfile(c *library.Controller, u library.User) {
	output.Section(displayName(u))
	output.Muted("@%s · %s · level %d", u.Username, u.Role, u.Level())
	if u.Bio != "" {
		output.Line("%s", u.Bio)
	}
	output.Line("")
	output.Line("Books this year  %d", u.Stats.BooksReadYear)
	output.Line("Pages read       %d", u.Stats.PagesRead)
	output.Line("Reading time     %dh%02dm", u.Stats.TotalTime/60, u.Stats.TotalTime%60)
	output.Line("Current streak   %d", u.Stats.CurrentStreak)
	output.Line("Weekly goal      %s", output.Progress(u.WeeklyGoal.Current, u.WeeklyGoal.Target, 20))

	output.Section("Favorites")
	printBookTitles(c.FavoriteBooks(), "No favorites yet.")
	output.Section("Recently finished")
	printBookTitles(c.RecentHistory(library.RecentHistoryLen), "Nothing finished yet.")
}

func printBookTitles(books []library.Book, empty string) {
	if len(books) == 0 {
		output.Muted("%s", empty)
		return
	}
	for _, b := range books {
		output.Line("  %-14d %s", b.ID, b.Title)
	}
}

func displayName(u library.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
