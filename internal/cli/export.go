package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"studylog/internal/export"
	"studylog/internal/store"
)

var (
	exportDate   string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a day's committed records to CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()

		date := time.Now()
		if exportDate != "" {
			date, err = time.ParseInLocation("2006-01-02", exportDate, time.Local)
			if err != nil {
				return fmt.Errorf("parse date %q: %w", exportDate, err)
			}
		}

		records, err := app.History.Day(date)
		if err != nil {
			return err
		}

		tags := make(map[string]*store.Tag)
		list, err := app.Manager.Tags()
		if err != nil {
			return err
		}
		for i := range list {
			tags[list[i].ID] = &list[i]
		}

		path := exportOut
		if path == "" {
			home, _ := os.UserHomeDir()
			path = filepath.Join(home, fmt.Sprintf("studylog-%s.%s", date.Format("2006-01-02"), exportFormat))
		}

		switch exportFormat {
		case "csv":
			err = export.ToCSV(records, tags, path)
		case "json":
			err = export.ToJSON(records, tags, path)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("exported %d records to %s\n", len(records), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDate, "date", "", "day to export (YYYY-MM-DD, default today)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default ~/studylog-DATE.FORMAT)")
	rootCmd.AddCommand(exportCmd)
}
