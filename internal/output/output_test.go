package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fofahack/internal/search/model"
)

func sampleResults() []model.SearchResult {
	return []model.SearchResult{
		{
			Link: "https://a.example.com", Host: "a.example.com", Port: 443,
			Title: "Site A", IP: "1.2.3.4", Protocol: "https", Country: "DE",
		},
		{
			Host: "b.example.com:8080", Port: 8080,
			Title: "Site, B", IP: "5.6.7.8",
		},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv", "txt"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteJSONBasicLevel(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatJSON, LevelBasic, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, name+".json", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var links []string
	require.NoError(t, json.Unmarshal(data, &links))
	assert.Equal(t, []string{"https://a.example.com", "b.example.com:8080"}, links)
}

func TestWriteJSONMediumLevel(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatJSON, LevelMedium, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "https://a.example.com", records[0]["url"])
	assert.Equal(t, float64(443), records[0]["port"])
	assert.NotContains(t, records[0], "country", "medium level must not leak full fields")
}

func TestWriteJSONFullLevel(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatJSON, LevelFull, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []model.SearchResult
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "DE", records[0].Country)
}

func TestWriteCSVFullHasHeaderAndQuoting(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatCSV, LevelFull, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "link,host,port,title"))
	assert.Contains(t, text, `"Site, B"`, "commas in fields must stay quoted")
}

func TestWriteCSVBasicIsLinkColumnOnly(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatCSV, LevelBasic, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "link", lines[0])
	assert.Equal(t, "https://a.example.com", lines[1])
}

func TestWriteTXTAppends(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")

	_, err := Write(name, FormatTXT, LevelBasic, sampleResults())
	require.NoError(t, err)
	path, err := Write(name, FormatTXT, LevelBasic, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 4, "a second run must append, not truncate")
}

func TestWriteTXTFullIsTabSeparated(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	path, err := Write(name, FormatTXT, LevelFull, sampleResults())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"https://a.example.com", "443", "1.2.3.4", "Site A"}, strings.Split(lines[0], "\t"))
}
