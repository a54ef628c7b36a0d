package output

import (
	"bufio"
	"fmt"
	"os"

	"fofahack/internal/search/model"
)

// TXT output appends, so repeated runs accumulate into one list.
func writeTXT(path string, level Level, results []model.SearchResult) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	for i := range results {
		r := &results[i]
		if level == LevelBasic {
			fmt.Fprintln(w, r.URL())
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.URL(), r.Port, r.IP, r.Title)
	}
	return nil
}
