package model

import (
	"time"
)

// AccessMode selects how the target service is queried.
type AccessMode string

const (
	ModeAPI  AccessMode = "api"
	ModeWeb  AccessMode = "web"
	ModeAuto AccessMode = "auto"
)

// SearchConfig holds the immutable parameters of one search run. It is
// created once per invocation and only read afterwards; the bound proxy
// travels separately because it changes during a run.
type SearchConfig struct {
	Keyword   string
	EndCount  int
	PageSize  int
	MaxPages  int
	TimeSleep time.Duration
	Timeout   time.Duration
	Mode      AccessMode
	Full      bool // search all data instead of the most recent year
	Debug     bool
}

// SearchResult is one matched host/service record. Its identity is the
// link; records are ordered by discovery sequence within a run.
type SearchResult struct {
	Link         string `json:"link"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Title        string `json:"title"`
	IP           string `json:"ip"`
	Protocol     string `json:"protocol"`
	Country      string `json:"country"`
	City         string `json:"city"`
	ASN          string `json:"asn"`
	Organization string `json:"organization"`
	Server       string `json:"server"`
	MTime        string `json:"mtime"`
}

// URL returns the best address for the record: the link when present,
// otherwise host[:port].
func (r *SearchResult) URL() string {
	if r.Link != "" {
		return r.Link
	}
	return r.Host
}

// PageResult is the decoded content of one fetched page.
type PageResult struct {
	Page    int
	Total   int
	Results []SearchResult
}

// Envelope mirrors the JSON body the API returns: a status code, a
// message, and a data object carrying the asset list.
type Envelope struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    EnvelopeData `json:"data"`
}

// EnvelopeData is the inner payload of an Envelope.
type EnvelopeData struct {
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Assets []Asset `json:"assets"`
}

// Asset is one raw record as the service serializes it. Port arrives as
// either a number or a string depending on the endpoint, hence the
// dedicated unmarshaller in asset.go.
type Asset struct {
	Link         string         `json:"link"`
	Host         string         `json:"host"`
	Port         FlexiblePort   `json:"port"`
	Title        string         `json:"title"`
	IP           string         `json:"ip"`
	Protocol     string         `json:"protocol"`
	Country      string         `json:"country"`
	City         string         `json:"city"`
	ASN          FlexibleString `json:"asn"`
	Organization string         `json:"organization"`
	Server       string         `json:"server"`
	MTime        string         `json:"mtime"`
}

// ToResult converts a raw asset into a SearchResult, constructing the
// link from host and port when the service omits it.
func (a *Asset) ToResult() SearchResult {
	link := a.Link
	if link == "" && a.Host != "" {
		link = a.Host
	}
	return SearchResult{
		Link:         link,
		Host:         a.Host,
		Port:         int(a.Port),
		Title:        a.Title,
		IP:           a.IP,
		Protocol:     a.Protocol,
		Country:      a.Country,
		City:         a.City,
		ASN:          string(a.ASN),
		Organization: a.Organization,
		Server:       a.Server,
		MTime:        a.MTime,
	}
}
