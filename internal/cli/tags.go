package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		tags, err := app.Manager.Tags()
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("no tags")
			return nil
		}
		for _, t := range tags {
			fmt.Printf("%s  %-20s %s %s\n", t.ID, t.Name, t.Color, t.Icon)
		}
		return nil
	},
}

var tagsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		tag, err := app.Manager.AddTag(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created tag %s (%s)\n", tag.Name, tag.ID)
		return nil
	},
}

var tagsRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a tag and all of its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Manager.DeleteTag(args[0]); err != nil {
			return err
		}
		fmt.Println("tag deleted")
		return nil
	},
}

func init() {
	tagsCmd.AddCommand(tagsListCmd, tagsAddCmd, tagsRmCmd)
	rootCmd.AddCommand(tagsCmd)
}
