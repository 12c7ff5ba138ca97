package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "End any orphaned active sessions, committing their elapsed time",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		before, err := app.Store.GetAllActive(app.Config.User.ID)
		if err != nil {
			return err
		}
		if len(before) == 0 {
			fmt.Println("no active sessions")
			return nil
		}

		if err := app.Manager.CleanupOrphans(); err != nil {
			return err
		}
		fmt.Printf("ended %d active session(s)\n", len(before))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the cached active-session mirror",
	Long: `Clears the locally cached copy of the active session. The authoritative
session row is untouched; the cache is rebuilt from it on the next launch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Manager.Mirror().Clear(); err != nil {
			return err
		}
		fmt.Println("mirror cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd, resetCmd)
}
