package storage

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"fofahack/internal/shared/logger"
	"fofahack/proxypool/model"
)

const (
	delimiter = "|"
	numFields = 7 // URL|Source|State|Latency|LastChecked|FailureCount|SuccessCount
)

// Storage persists the proxy pool between runs.
type Storage interface {
	Load() (map[string]*model.Entry, error)
	Save(entries map[string]*model.Entry) error
}

// FileStorage keeps the pool in a plain-text file, one entry per line.
type FileStorage struct {
	filePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a FileStorage for the given path.
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{filePath: filePath}
}

// Load reads the pool file into a map keyed by proxy URL. A missing file
// means an empty pool, not an error.
func (fs *FileStorage) Load() (map[string]*model.Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	l := logger.WithComponent("ProxyPool/Storage")

	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			l.Info().Str("path", fs.filePath).Msg("Pool file not found, starting with an empty pool.")
			return make(map[string]*model.Entry), nil
		}
		return nil, err
	}
	defer file.Close()

	entries := make(map[string]*model.Entry)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, delimiter)
		if len(fields) != numFields {
			l.Warn().Int("line", lineNum).Int("expected", numFields).Int("got", len(fields)).Msg("Skipping malformed line in pool file.")
			continue
		}

		e, err := parseEntry(fields)
		if err != nil {
			l.Warn().Int("line", lineNum).Err(err).Msg("Failed to parse pool entry, skipping.")
			continue
		}
		entries[e.URL] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l.Info().Int("count", len(entries)).Msg("Loaded proxies from pool file.")
	return entries, nil
}

// Save writes the pool map back to disk, sorted for stable diffs.
func (fs *FileStorage) Save(entries map[string]*model.Entry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	list := make([]*model.Entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].URL < list[j].URL
	})

	var sb strings.Builder
	for _, e := range list {
		sb.WriteString(formatEntry(e))
		sb.WriteString("\n")
	}

	return os.WriteFile(fs.filePath, []byte(sb.String()), 0644)
}

func formatEntry(e *model.Entry) string {
	return strings.Join([]string{
		e.URL,
		e.Source,
		string(e.State),
		strconv.FormatInt(int64(e.Latency), 10),
		strconv.FormatInt(e.LastChecked.Unix(), 10),
		strconv.Itoa(e.FailureCount),
		strconv.Itoa(e.SuccessCount),
	}, delimiter)
}

func parseEntry(fields []string) (*model.Entry, error) {
	latency, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latency %q: %w", fields[3], err)
	}
	lastChecked, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", fields[4], err)
	}
	failures, err := strconv.Atoi(fields[5])
	if err != nil {
		return nil, fmt.Errorf("bad failure count %q: %w", fields[5], err)
	}
	successes, err := strconv.Atoi(fields[6])
	if err != nil {
		return nil, fmt.Errorf("bad success count %q: %w", fields[6], err)
	}

	return &model.Entry{
		URL:          fields[0],
		Source:       fields[1],
		State:        model.State(fields[2]),
		Latency:      time.Duration(latency),
		LastChecked:  time.Unix(lastChecked, 0),
		FailureCount: failures,
		SuccessCount: successes,
	}, nil
}
