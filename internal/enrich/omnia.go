package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/globaltelecom/voicebridge/internal/httpx"
	"github.com/globaltelecom/voicebridge/internal/types"
)

// OmniaSource looks up callers through the Omnia Voice incoming-call webhook.
// Omnia returns a flat record with snake_case fields.
type OmniaSource struct {
	client *httpx.Client
	url    string
	apiKey string
}

// NewOmniaSource creates an Omnia Voice lookup source
func NewOmniaSource(client *httpx.Client, apiURL, apiKey string) *OmniaSource {
	return &OmniaSource{
		client: client,
		url:    apiURL,
		apiKey: apiKey,
	}
}

func (s *OmniaSource) Name() string { return "omnia" }

type omniaRequest struct {
	CallerPhoneNumber string `json:"caller_phone_number"`
	CallerFirstName   string `json:"caller_first_name"`
	CallerLastName    string `json:"caller_last_name"`
}

type omniaResponse struct {
	CallID        string `json:"call_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	CampaignTitle string `json:"campaign_title"`
}

// Lookup queries Omnia Voice by normalized phone number
func (s *OmniaSource) Lookup(ctx context.Context, phone string) (types.CallerProfile, bool, error) {
	payload, err := json.Marshal(omniaRequest{CallerPhoneNumber: phone})
	if err != nil {
		return types.CallerProfile{}, false, fmt.Errorf("marshal omnia request: %w", err)
	}

	resp, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", s.apiKey)
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
		return types.CallerProfile{}, false, fmt.Errorf("omnia returned status %d", resp.StatusCode)
	}

	var body omniaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.CallerProfile{}, false, fmt.Errorf("decode omnia response: %w", err)
	}

	profile := types.CallerProfile{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		State:     body.State,
	}
	if profile.IsEmpty() && body.CallID == "" {
		return types.CallerProfile{}, false, nil
	}

	extras := map[string]string{
		"call_id":        body.CallID,
		"email":          body.Email,
		"address":        body.Address,
		"city":           body.City,
		"zip":            body.Zip,
		"campaign_title": body.CampaignTitle,
	}
	for k, v := range extras {
		if v == "" {
			continue
		}
		if profile.Extra == nil {
			profile.Extra = make(map[string]string)
		}
		profile.Extra[k] = v
	}

	return profile, true, nil
}
