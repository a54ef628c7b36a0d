package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"fofahack/internal/search/model"
)

var csvHeader = []string{
	"link", "host", "port", "title", "ip",
	"protocol", "country", "city", "asn", "organization", "server", "mtime",
}

func writeCSV(path string, level Level, results []model.SearchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if level == LevelBasic {
		if err := w.Write([]string{"link"}); err != nil {
			return err
		}
		for i := range results {
			if err := w.Write([]string{results[i].URL()}); err != nil {
				return err
			}
		}
		return w.Error()
	}

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		row := []string{
			r.Link, r.Host, strconv.Itoa(r.Port), r.Title, r.IP,
			r.Protocol, r.Country, r.City, r.ASN, r.Organization, r.Server, r.MTime,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
