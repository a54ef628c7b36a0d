package output

import (
	"fmt"

	"fofahack/internal/search/model"
)

// Format selects the serialization of a result file.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// Level selects how much of each record is written: "1" link only,
// "2" link/port/title/ip, "3" the full record.
type Level string

const (
	LevelBasic  Level = "1"
	LevelMedium Level = "2"
	LevelFull   Level = "3"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV, FormatTXT:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, csv or txt)", s)
	}
}

// Write serializes results to "<name>.<format>" and returns the path.
func Write(name string, format Format, level Level, results []model.SearchResult) (string, error) {
	path := fmt.Sprintf("%s.%s", name, format)
	var err error
	switch format {
	case FormatJSON:
		err = writeJSON(path, level, results)
	case FormatCSV:
		err = writeCSV(path, level, results)
	case FormatTXT:
		err = writeTXT(path, level, results)
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
