package model

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetToleratesMixedFieldTypes(t *testing.T) {
	raw := `[
		{"link":"https://a.example.com","port":443,"asn":4134},
		{"host":"b.example.com","port":"8080","asn":"AS15169"},
		{"host":"c.example.com","port":null,"asn":null},
		{"host":"d.example.com","port":"weird"}
	]`
	var assets []Asset
	require.NoError(t, json.Unmarshal([]byte(raw), &assets))
	require.Len(t, assets, 4)

	assert.Equal(t, 443, int(assets[0].Port))
	assert.Equal(t, "4134", string(assets[0].ASN))
	assert.Equal(t, 8080, int(assets[1].Port))
	assert.Equal(t, "AS15169", string(assets[1].ASN))
	assert.Equal(t, 0, int(assets[2].Port))
	assert.Equal(t, "", string(assets[2].ASN))
	assert.Equal(t, 0, int(assets[3].Port), "unparseable port degrades to zero, not an error")
}

func TestAssetToResultFallsBackToHost(t *testing.T) {
	a := Asset{Host: "h.example.com:8080", Port: 8080, IP: "1.2.3.4"}
	r := a.ToResult()
	assert.Equal(t, "h.example.com:8080", r.Link)
	assert.Equal(t, "h.example.com:8080", r.URL())
}

func TestResultURLPrefersLink(t *testing.T) {
	r := SearchResult{Link: "https://a.example.com", Host: "a.example.com"}
	assert.Equal(t, "https://a.example.com", r.URL())
}

func TestBanAndParsePredicates(t *testing.T) {
	ban := &BanError{Code: -3000, Message: "blocked"}
	wrapped := fmt.Errorf("fetch page 3: %w", ban)
	assert.True(t, IsBan(ban))
	assert.True(t, IsBan(wrapped), "predicates must see through wrapping")
	assert.False(t, IsParse(wrapped))

	parse := &ParseError{Reason: "bad markup", Err: context.DeadlineExceeded}
	assert.True(t, IsParse(parse))
	assert.False(t, IsBan(parse))
	assert.ErrorIs(t, parse, context.DeadlineExceeded)

	assert.False(t, IsBan(nil))
	assert.False(t, IsParse(nil))
}
