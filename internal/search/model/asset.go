package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexiblePort decodes a port that the service serializes as either a
// JSON number or a quoted string.
type FlexiblePort int

func (p *FlexiblePort) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*p = 0
		return nil
	}
	*p = FlexiblePort(n)
	return nil
}

// FlexibleString decodes a field that arrives as either a string or a
// number (ASN does both).
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}
	*f = FlexibleString(string(data))
	return nil
}
