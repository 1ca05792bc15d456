package token

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser/sandbox"
	"github.com/bytedance/sonic"
)

//go:embed fetch.js
var fetchSource string

// Upstream endpoint paths, relative to the configured base URL
const (
	AwardingPath  = "/x-api/segw/awar/v1/awarding"
	FaceTokenPath = "/x-api/user/public/risk/face/token"
)

// Endpoints are the two URLs the in-page script calls
type Endpoints struct {
	Awarding  string `json:"awarding"`
	FaceToken string `json:"faceToken"`
}

// Script is the in-page two-step token fetch
type Script struct {
	source    string
	endpoints Endpoints
}

// ScriptResult is what the in-page script reports back
type ScriptResult struct {
	Token    string          `json:"token,omitempty"`
	Error    string          `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Steps    []string        `json:"steps,omitempty"`
}

// NewScript binds the script to baseURL and checks that it parses
func NewScript(baseURL string) (*Script, error) {
	source := strings.TrimSpace(fetchSource)
	if err := sandbox.Compile("fetch.js", "("+source+")"); err != nil {
		return nil, fmt.Errorf("compile token script: %w", err)
	}

	base := strings.TrimRight(baseURL, "/")
	return &Script{
		source: source,
		endpoints: Endpoints{
			Awarding:  base + AwardingPath,
			FaceToken: base + FaceTokenPath,
		},
	}, nil
}

// Source returns the function expression to evaluate in the page
func (s *Script) Source() string {
	return s.source
}

// Endpoints returns the URLs the script will call
func (s *Script) Endpoints() Endpoints {
	return s.endpoints
}

// Args returns the evaluation arguments for awardID
func (s *Script) Args(awardID int64) []interface{} {
	return []interface{}{s.endpoints, awardID}
}

// Decode parses the JSON value returned by the page. A null or empty value
// yields a nil result.
func (s *Script) Decode(raw []byte) (*ScriptResult, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	// a bare string is a token
	if strings.HasPrefix(trimmed, `"`) {
		var tok string
		if err := sonic.UnmarshalString(trimmed, &tok); err != nil {
			return nil, fmt.Errorf("decode script result: %w", err)
		}
		if tok == "" {
			return nil, nil
		}
		return &ScriptResult{Token: tok}, nil
	}

	var res ScriptResult
	if err := sonic.UnmarshalString(trimmed, &res); err != nil {
		return nil, fmt.Errorf("decode script result: %w", err)
	}
	if res.Token == "" && res.Error == "" {
		return &ScriptResult{Steps: res.Steps}, nil
	}
	return &res, nil
}
