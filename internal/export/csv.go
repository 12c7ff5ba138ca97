package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"studylog/internal/store"
)

func ToCSV(records []store.Record, tags map[string]*store.Tag, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Tag", "Start", "Duration (ms)", "Duration"}); err != nil {
		return err
	}

	for _, r := range records {
		tagName := "Unknown"
		if t, ok := tags[r.TagID]; ok {
			tagName = t.Name
		}

		row := []string{
			r.ID,
			tagName,
			r.CreatedAt.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", r.Duration),
			formatDuration(r.Duration),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatDuration(ms int64) string {
	secs := ms / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
