package output

import (
	"encoding/json"
	"fmt"
	"os"

	"fofahack/internal/search/model"
)

type mediumRecord struct {
	URL   string `json:"url"`
	Port  int    `json:"port"`
	Title string `json:"title"`
	IP    string `json:"ip"`
}

func writeJSON(path string, level Level, results []model.SearchResult) error {
	var payload any
	switch level {
	case LevelBasic:
		links := make([]string, 0, len(results))
		for i := range results {
			links = append(links, results[i].URL())
		}
		payload = links
	case LevelMedium:
		records := make([]mediumRecord, 0, len(results))
		for i := range results {
			r := &results[i]
			records = append(records, mediumRecord{
				URL:   r.URL(),
				Port:  r.Port,
				Title: r.Title,
				IP:    r.IP,
			})
		}
		payload = records
	default:
		payload = results
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write file %s: %w", path, err)
	}
	return nil
}
