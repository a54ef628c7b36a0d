package webclient

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"fofahack/internal/search/model"
)

// looseEnvelope tolerates both shapes the page embeds: assets nested
// under "data" or sitting at the top level.
type looseEnvelope struct {
	Code    int           `json:"code"`
	Data    *looseData    `json:"data"`
	Assets  []model.Asset `json:"assets"`
	Results []model.Asset `json:"results"`
	Total   int           `json:"total"`
}

type looseData struct {
	Total   int           `json:"total"`
	Assets  []model.Asset `json:"assets"`
	Results []model.Asset `json:"results"`
}

// extractResults pulls the embedded result JSON out of a result page.
// The page either is raw JSON (some responses skip the HTML shell) or
// carries the payload inside a script tag as window.__INITIAL_STATE__.
func extractResults(body string) ([]model.SearchResult, int, error) {
	if env, ok := tryDecode(body); ok {
		return convert(env)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, 0, &model.ParseError{Reason: "unreadable markup", Err: err}
	}

	var found *looseEnvelope
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if text == "" {
			return true
		}
		if strings.Contains(text, "window.__INITIAL_STATE__") {
			if env, ok := tryDecode(braceSlice(text)); ok {
				found = env
				return false
			}
		}
		if strings.Contains(text, `"assets":`) || strings.Contains(text, `"results":`) {
			if env, ok := tryDecode(braceSlice(text)); ok {
				found = env
				return false
			}
		}
		return true
	})

	if found == nil {
		return nil, 0, &model.ParseError{Reason: "no result payload in markup"}
	}
	return convert(found)
}

// braceSlice cuts the substring between the first '{' and the last '}'.
func braceSlice(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func tryDecode(s string) (*looseEnvelope, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var env looseEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	if env.Data == nil && env.Assets == nil && env.Results == nil {
		return nil, false
	}
	return &env, true
}

func convert(env *looseEnvelope) ([]model.SearchResult, int, error) {
	assets := env.Assets
	total := env.Total
	if env.Data != nil {
		if len(env.Data.Assets) > 0 {
			assets = env.Data.Assets
		} else if len(env.Data.Results) > 0 {
			assets = env.Data.Results
		}
		total = env.Data.Total
	}
	if assets == nil && env.Results != nil {
		assets = env.Results
	}

	results := make([]model.SearchResult, 0, len(assets))
	for i := range assets {
		results = append(results, assets[i].ToResult())
	}
	if total == 0 {
		total = len(results)
	}
	return results, total, nil
}
