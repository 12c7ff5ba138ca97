package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"studylog/internal/store"
)

type jsonExport struct {
	ExportedAt string       `json:"exported_at"`
	Count      int          `json:"count"`
	Records    []jsonRecord `json:"records"`
}

type jsonRecord struct {
	ID         string `json:"id"`
	Tag        string `json:"tag"`
	TagID      string `json:"tag_id"`
	Start      string `json:"start"`
	DurationMs int64  `json:"duration_ms"`
	Duration   string `json:"duration"`
}

func ToJSON(records []store.Record, tags map[string]*store.Tag, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(records),
	}

	for _, r := range records {
		tagName := "Unknown"
		if t, ok := tags[r.TagID]; ok {
			tagName = t.Name
		}

		out.Records = append(out.Records, jsonRecord{
			ID:         r.ID,
			Tag:        tagName,
			TagID:      r.TagID,
			Start:      r.CreatedAt.Local().Format(time.RFC3339),
			DurationMs: r.Duration,
			Duration:   formatDuration(r.Duration),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
