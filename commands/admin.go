package commands

import (
	"fmt"
	"strings"

	"air-library/library"
	"air-library/output"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "Read or send notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show notifications, newest first, and mark them read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			list := c.OpenNotifications()
			if len(list) == 0 {
				output.Muted("No notifications.")
				return nil
			}
			for _, n := range list {
				output.Line("%s %s  %s", output.UnreadMark(n.Read), n.Date, n.Text)
			}
			return nil
		})
	},
}

var notificationsSendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Broadcast a notification to every reader (admin)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if err := requireAdmin(c); err != nil {
				return err
			}
			c.OpenNotifyForm()
			n, err := c.SendNotification(strings.Join(args, " "))
			if err != nil {
				return describe(err)
			}
			output.Success("Sent on %s", n.Date)
			return nil
		})
	},
}

var topPickCmd = &cobra.Command{
	Use:     "toppick",
	Aliases: []string{"top-pick"},
	Short:   "Show or change the featured book banner",
}

var topPickShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the top pick banner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if _, err := requireLogin(c); err != nil {
				return err
			}
			tp := c.TopPick()
			output.Section("★ " + tp.BannerTitle)
			if tp.BannerDesc != "" {
				output.Line("%s", tp.BannerDesc)
			}
			if tp.BannerCover != "" {
				output.Muted("Cover: %s", tp.BannerCover)
			}
			if b, ok := lm.Store().Book(tp.ID); ok {
				output.Info("Opens %q (ID %d)", b.Title, b.ID)
			} else {
				output.Warning("Book %d is gone; the banner opens the first catalog book", tp.ID)
			}
			return nil
		})
	},
}

var topPickSetCmd = &cobra.Command{
	Use:   "set <book-id>",
	Short: "Feature a book in the banner (admin)",
	Long: `Feature a book. Title, description and cover default to the book's own.

  air toppick set 3 --desc "This month's pick"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(lm *library.LibraryManager) error {
			c := lm.Controller()
			if err := requireAdmin(c); err != nil {
				return err
			}
			b, ok := lm.Store().Book(id)
			if !ok {
				return describe(fmt.Errorf("book %d: %w", id, library.ErrNotFound))
			}
			tp := library.TopPick{ID: b.ID, BannerTitle: b.Title, BannerDesc: b.Desc, BannerCover: b.Cover}
			f := cmd.Flags()
			if f.Changed("title") {
				tp.BannerTitle, _ = f.GetString("title")
			}
			if f.Changed("desc") {
				tp.BannerDesc, _ = f.GetString("desc")
			}
			if f.Changed("cover") {
				tp.BannerCover, _ = f.GetString("cover")
			}
			c.OpenTopPickForm()
			c.SetTopPick(tp)
			output.Success("Top pick is now %q", tp.BannerTitle)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd, topPickCmd)
	notificationsCmd.AddCommand(notificationsListCmd, notificationsSendCmd)
	topPickCmd.AddCommand(topPickShowCmd, topPickSetCmd)

	topPickSetCmd.Flags().String("title", "", "Banner title (default: the book title)")
	topPickSetCmd.Flags().String("desc", "", "Banner text (default: the book description)")
	topPickSetCmd.Flags().String("cover", "", "Banner image URL (default: the book cover)")
}
