package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/bytedance/sonic"
)

// DefaultAwardID is used when a request carries no awardId
const DefaultAwardID int64 = 138736

// Request is a validated token request
type Request struct {
	Cookies []browser.Cookie
	URL     string
	Proxy   *browser.Proxy
	// ProxyDisplay is the normalized proxy URL with its password masked
	ProxyDisplay string
	AwardID      int64
}

// DecodeOptions supplies defaults applied while decoding
type DecodeOptions struct {
	CookieDomain   string
	DefaultAwardID int64
}

// Decode validates a raw /get-token body and records the intake lines in j.
// Checks run in this order: JSON object, cookies and url present, cookies
// shape, awardId, proxy.
func Decode(body []byte, opts DecodeOptions, j *Journal) (*Request, error) {
	fields, keys, err := decodeObject(body)
	if err != nil {
		j.Add("Body keys: ")
		j.Add("Cookies type: undefined, isArray: false")
		return nil, ErrInvalidBody
	}

	j.Add("Body keys: " + strings.Join(keys, ", "))

	cookiesRaw := fields["cookies"]
	j.Addf("Cookies type: %s, isArray: %t", typeOf(cookiesRaw), kindOf(cookiesRaw) == '[')

	if !truthy(cookiesRaw) || !truthy(fields["url"]) {
		return nil, ErrMissingInput
	}

	var target string
	if err := sonic.Unmarshal(fields["url"], &target); err != nil {
		return nil, ErrMissingInput
	}

	req := &Request{URL: target}

	switch kindOf(cookiesRaw) {
	case '"':
		var s string
		_ = sonic.Unmarshal(cookiesRaw, &s)
		j.Add("Cookies is a string, attempting to parse...")
		req.Cookies = ParseCookieString(s, opts.CookieDomain)
		j.Addf("Parsed %d cookies from string", len(req.Cookies))
	case '[':
		var items []json.RawMessage
		if err := sonic.Unmarshal(cookiesRaw, &items); err != nil {
			j.Add("Cookies is not an array after parsing")
			return nil, ErrCookiesNotArray
		}
		var dropped int
		req.Cookies, dropped = DecodeCookieArray(items, opts.CookieDomain)
		if dropped > 0 {
			j.Addf("Dropped %d invalid cookies", dropped)
		}
	default:
		j.Add("Cookies is not an array after parsing")
		return nil, ErrCookiesNotArray
	}

	req.AwardID, err = parseAwardID(fields["awardId"], opts.DefaultAwardID)
	if err != nil {
		return nil, err
	}

	if raw, ok := fields["proxy"]; ok && truthy(raw) {
		var p string
		if err := sonic.Unmarshal(raw, &p); err != nil {
			return nil, ErrInvalidProxy
		}
		normalized := NormalizeProxy(p)
		req.Proxy = ParseProxy(p)
		req.ProxyDisplay = MaskProxy(normalized)
	}

	return req, nil
}

// parseAwardID accepts an integer or a numeric string holding one. Absent, null, zero
// and empty values fall back to def.
func parseAwardID(raw json.RawMessage, def int64) (int64, error) {
	if def == 0 {
		def = DefaultAwardID
	}
	if !truthy(raw) {
		return def, nil
	}

	text := string(bytes.TrimSpace(raw))
	if kindOf(raw) == '"' {
		if err := sonic.Unmarshal(raw, &text); err != nil {
			return 0, ErrInvalidAwardID
		}
		text = strings.TrimSpace(text)
	}

	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		return id, nil
	}

	// 1e3 and 12.0 are integers too
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, ErrInvalidAwardID
	}
	return int64(f), nil
}

// decodeObject reads a top-level JSON object, keeping its keys in document
// order. A repeated key keeps its first position and its last value.
func decodeObject(body []byte) (map[string]json.RawMessage, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("not an object")
	}

	fields := map[string]json.RawMessage{}
	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after object")
	}
	return fields, keys, nil
}

// kindOf returns the first significant byte of a JSON value, 0 if absent
func kindOf(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// typeOf names a JSON value the way JavaScript's typeof would
func typeOf(raw json.RawMessage) string {
	switch kindOf(raw) {
	case 0:
		return "undefined"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case '{', '[', 'n':
		return "object"
	default:
		return "number"
	}
}

// truthy reports JavaScript truthiness of a JSON value
func truthy(raw json.RawMessage) bool {
	trimmed := string(bytes.TrimSpace(raw))
	switch trimmed {
	case "", "null", "false", `""`:
		return false
	}
	if kindOf(raw) == '-' || (kindOf(raw) >= '0' && kindOf(raw) <= '9') {
		f, err := strconv.ParseFloat(trimmed, 64)
		return err == nil && f != 0
	}
	return true
}
