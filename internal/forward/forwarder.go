package forward

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/globaltelecom/voicebridge/internal/httpx"
	"github.com/globaltelecom/voicebridge/internal/metrics"
	"github.com/globaltelecom/voicebridge/internal/types"
	"github.com/rs/zerolog"
)

// ErrMissingCallID is returned when a command has no call identifier.
// No network call is made.
var ErrMissingCallID = errors.New("missing call identifier")

// Forwarder sends keypress commands to the telephony platform
type Forwarder struct {
	client           *httpx.Client
	auth             string // pre-encoded Basic credentials
	defaultSubdomain string
	logger           zerolog.Logger

	// test hook, overrides the subdomain-based endpoint when set
	urlOverride string
}

// NewForwarder creates a forwarder. auth is the pre-encoded Basic token;
// build it with BasicToken.
func NewForwarder(client *httpx.Client, auth, defaultSubdomain string, logger zerolog.Logger) *Forwarder {
	return &Forwarder{
		client:           client,
		auth:             auth,
		defaultSubdomain: defaultSubdomain,
		logger:           logger,
	}
}

// BasicToken returns the Basic auth token for the platform. A pre-encoded
// token wins over the key pair.
func BasicToken(publicKey, privateKey, preEncoded string) string {
	if preEncoded != "" {
		return preEncoded
	}
	return base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + privateKey))
}

// keypressPayload is the platform's send_key_press body
type keypressPayload struct {
	ID     string                `json:"id"`
	Digits string                `json:"digits"`
	Data   *types.CommandPayload `json:"data,omitempty"`
}

// Send delivers the command, retrying transient upstream failures. The
// returned error is terminal: either the platform accepted the keypress or
// it did not. Duplicate sends for the same call are tolerated upstream, so
// nothing is deduplicated here.
func (f *Forwarder) Send(ctx context.Context, cmd types.OutboundCommand) error {
	m := metrics.Get()

	if cmd.CallID == "" {
		f.logger.Error().Str("signal", cmd.Signal).Msg("refusing to send keypress without call identifier")
		m.RecordForwardOutcome(false)
		return ErrMissingCallID
	}

	subdomain := cmd.Subdomain
	if subdomain == "" {
		subdomain = f.defaultSubdomain
	}

	url := f.urlOverride
	if url == "" {
		url = fmt.Sprintf("https://%s.trackdrive.com/api/v1/calls/send_key_press", subdomain)
	}

	body, err := json.Marshal(keypressPayload{
		ID:     cmd.CallID,
		Digits: cmd.Signal,
		Data:   cmd.Payload,
	})
	if err != nil {
		m.RecordForwardOutcome(false)
		return fmt.Errorf("marshal keypress payload: %w", err)
	}

	f.logger.Info().
		Str("call_id", cmd.CallID).
		Str("signal", cmd.Signal).
		Str("subdomain", subdomain).
		Msg("sending keypress")
	m.RecordForwardAttempt()

	resp, err := f.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Basic "+f.auth)
		return req, nil
	})
	if err != nil {
		f.logger.Error().Err(err).Str("call_id", cmd.CallID).Str("signal", cmd.Signal).Msg("keypress send failed")
		m.RecordForwardOutcome(false)
		return fmt.Errorf("send keypress: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error().Int("status", resp.StatusCode).Str("call_id", cmd.CallID).Str("signal", cmd.Signal).Msg("keypress rejected")
		m.RecordForwardOutcome(false)
		return fmt.Errorf("keypress rejected with status %d", resp.StatusCode)
	}

	f.logger.Info().Str("call_id", cmd.CallID).Str("signal", cmd.Signal).Msg("keypress sent")
	m.RecordForwardOutcome(true)
	return nil
}
