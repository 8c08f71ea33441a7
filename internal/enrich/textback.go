package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/globaltelecom/voicebridge/internal/httpx"
	"github.com/globaltelecom/voicebridge/internal/types"
)

// TextBackSource looks up callers in the TextBack contact directory.
// TextBack wraps every field of a match in a single-element list.
type TextBackSource struct {
	client *httpx.Client
	url    string
	token  string
	secret string
}

// NewTextBackSource creates a TextBack lookup source
func NewTextBackSource(client *httpx.Client, apiURL, token, secret string) *TextBackSource {
	return &TextBackSource{
		client: client,
		url:    apiURL,
		token:  token,
		secret: secret,
	}
}

func (s *TextBackSource) Name() string { return "textback" }

// textbackResponse is the raw contact shape: {"info": {"fName": ["Jane"], ...}}
type textbackResponse struct {
	Info map[string]json.RawMessage `json:"info"`
}

// Lookup queries TextBack by normalized phone number
func (s *TextBackSource) Lookup(ctx context.Context, phone string) (types.CallerProfile, bool, error) {
	resp, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"?phone="+url.QueryEscape(phone), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("token", s.token)
		req.Header.Set("secret", s.secret)
		return req, nil
	})
	if err != nil {
		return types.CallerProfile{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.CallerProfile{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return types.CallerProfile{}, false, fmt.Errorf("textback returned status %d", resp.StatusCode)
	}

	var body textbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.CallerProfile{}, false, fmt.Errorf("decode textback response: %w", err)
	}
	if len(body.Info) == 0 {
		return types.CallerProfile{}, false, nil
	}

	profile := types.CallerProfile{
		FirstName: firstString(body.Info["fName"]),
		LastName:  firstString(body.Info["lName"]),
		State:     firstString(body.Info["stateCode"]),
	}

	for k, v := range body.Info {
		if k == "fName" || k == "lName" || k == "stateCode" {
			continue
		}
		if s := firstString(v); s != "" {
			if profile.Extra == nil {
				profile.Extra = make(map[string]string)
			}
			profile.Extra[k] = s
		}
	}

	return profile, true, nil
}

// firstString unwraps a TextBack field that may be a bare string or a
// list-wrapped singleton
func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}
