package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/globaltelecom/voicebridge/internal/enrich"
	"github.com/globaltelecom/voicebridge/internal/metrics"
	"github.com/globaltelecom/voicebridge/internal/qualify"
	"github.com/globaltelecom/voicebridge/internal/storage"
	"github.com/globaltelecom/voicebridge/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resolver resolves a phone number into a caller profile
type Resolver interface {
	Resolve(ctx context.Context, callID, phone string) (types.CallerProfile, bool)
}

// Sender forwards an outbound command to the telephony platform
type Sender interface {
	Send(ctx context.Context, cmd types.OutboundCommand) error
}

// Response statuses returned to the voice platform
const (
	StatusSuccess        = "success"
	StatusError          = "error"
	StatusPartialSuccess = "partial_success"
)

const genericGreeting = "Hello, how can I assist you today?"

// Dispatcher is the webhook entry point: it classifies inbound call events
// and routes them to enrichment, qualification and forwarding.
type Dispatcher struct {
	resolver   Resolver
	forwarder  Sender
	store      storage.Store
	thresholds qualify.Thresholds
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDispatcher creates a dispatcher over its collaborators
func NewDispatcher(resolver Resolver, forwarder Sender, store storage.Store, thresholds qualify.Thresholds, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		resolver:   resolver,
		forwarder:  forwarder,
		store:      store,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleWebhook processes one call event. Authentication has already
// happened in middleware; the response always carries a status field, and
// handled outcomes (including qualification and forwarding failures) are 200.
func (d *Dispatcher) HandleWebhook(w http.ResponseWriter, req *http.Request) {
	m := metrics.Get()

	var body types.WebhookRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		d.logger.Error().Err(err).Msg("failed to decode webhook body")
		m.RecordEventError()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  StatusError,
			"message": "invalid request body",
		})
		return
	}

	event := d.classify(body)
	m.RecordEvent(event.Kind)

	log := d.logger.With().
		Str("kind", string(event.Kind)).
		Str("call_id", event.CallID).
		Logger()

	switch event.Kind {
	case types.KindStatusUpdate:
		// Explicit no-op terminal state
		log.Info().Msg("status update acknowledged")
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  StatusSuccess,
			"message": "Status update received",
		})

	case types.KindIdentityRequest:
		d.handleIdentity(w, req, event, log)

	case types.KindDataSubmission:
		d.handleDataSubmission(w, req, event, log)

	case types.KindSignalRelay:
		d.handleSignalRelay(w, req, event, log)

	default:
		log.Warn().Str("type", body.Message.Type).Msg("unrecognized event")
		m.RecordEventError()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  StatusError,
			"message": "invalid request",
		})
	}
}

// classify normalizes the webhook envelope into a CallEvent. A missing call
// identifier is replaced with a synthetic one so downstream responses never
// carry an empty ID.
func (d *Dispatcher) classify(body types.WebhookRequest) types.CallEvent {
	event := types.CallEvent{Kind: types.KindUnknown}

	if call := body.Message.Call; call != nil {
		event.CallID = call.TDUUID
		event.Subdomain = call.Subdomain
		event.Category = call.Category
		if call.Customer != nil {
			event.Phone = call.Customer.Number
		}
	}

	switch body.Message.Type {
	case types.MessageTypeStatusUpdate:
		event.Kind = types.KindStatusUpdate
	case types.MessageTypeFunctionCall:
		if fc := body.Message.FunctionCall; fc != nil {
			event.Attrs = fc.Parameters
			switch fc.Name {
			case types.FunctionExtractCallerInfo:
				event.Kind = types.KindIdentityRequest
			case types.FunctionSendFinancialDetails:
				event.Kind = types.KindDataSubmission
			case types.FunctionSendKeypress:
				event.Kind = types.KindSignalRelay
			}
		}
	}

	// Parameters may carry identifiers the call object lacks
	if event.CallID == "" {
		event.CallID = stringAttr(event.Attrs, "td_uuid")
	}
	if event.Subdomain == "" {
		event.Subdomain = stringAttr(event.Attrs, "subdomain")
	}
	if event.Phone == "" {
		event.Phone = stringAttr(event.Attrs, "from")
	}

	if event.CallID == "" && event.Kind != types.KindUnknown {
		event.CallID = "gen-" + uuid.New().String()
		event.SyntheticID = true
		d.logger.Warn().
			Str("kind", string(event.Kind)).
			Str("call_id", event.CallID).
			Msg("event carried no call identifier, generated fallback")
	}

	return event
}

// handleIdentity resolves the caller and returns a personalized greeting.
// An unresolved number degrades to a generic greeting, never an error.
func (d *Dispatcher) handleIdentity(w http.ResponseWriter, req *http.Request, event types.CallEvent, log zerolog.Logger) {
	if event.Phone == "" {
		log.Warn().Msg("identity request without phone number")
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  StatusError,
			"message": "no valid phone number provided",
		})
		return
	}

	profile, ok := d.resolver.Resolve(req.Context(), event.CallID, event.Phone)
	if !ok {
		log.Info().Str("phone", event.Phone).Msg("caller not resolved, returning generic greeting")
		writeJSON(w, http.StatusOK, map[string]any{
			"status": StatusSuccess,
			"result": map[string]any{
				"personalized_message": genericGreeting,
				"caller":               event.Phone,
				"td_uuid":              event.CallID,
				"category":             event.Category,
				"subdomain":            event.Subdomain,
			},
		})
		return
	}

	log.Info().Msg("caller resolved, returning personalized greeting")
	writeJSON(w, http.StatusOK, map[string]any{
		"status": StatusSuccess,
		"result": map[string]any{
			"personalized_message": Greeting(profile),
			"caller_info":          profile,
			"td_uuid":              event.CallID,
			"category":             event.Category,
			"subdomain":            event.Subdomain,
		},
	})
}

// handleDataSubmission qualifies the collected financials and, when the lead
// passes, forwards the transfer keypress with the combined payload.
func (d *Dispatcher) handleDataSubmission(w http.ResponseWriter, req *http.Request, event types.CallEvent, log zerolog.Logger) {
	fin := types.FinancialProfileFromAttrs(event.Attrs)
	qualified := qualify.Qualified(fin, d.thresholds)
	log.Info().Bool("qualified", qualified).Msg("lead evaluated")

	if !qualified {
		d.saveLead(event, fin, false, false, log)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    StatusSuccess,
			"message":   "Caller is not qualified",
			"qualified": false,
			"data_sent": false,
		})
		return
	}

	// Attach whatever identity we already have; a miss still transfers
	profile, _ := d.resolver.Resolve(req.Context(), event.CallID, event.Phone)

	callID := event.CallID
	if event.SyntheticID {
		// Some enrichment sources know the platform's own call ID
		if id := profile.Extra["call_id"]; id != "" {
			callID = id
		}
	}

	err := d.forwarder.Send(req.Context(), types.OutboundCommand{
		CallID:    callID,
		Subdomain: event.Subdomain,
		Signal:    types.TransferSignal,
		Payload: &types.CommandPayload{
			CustomerInfo:  profile,
			FinancialInfo: fin,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("qualified lead could not be forwarded")
		d.saveLead(event, fin, true, false, log)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    StatusPartialSuccess,
			"message":   "Caller is qualified but keypress and data could not be sent",
			"qualified": true,
			"data_sent": false,
		})
		return
	}

	d.saveLead(event, fin, true, true, log)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    StatusSuccess,
		"message":   "Caller is qualified, keypress and financial data sent",
		"qualified": true,
		"data_sent": true,
	})
}

// handleSignalRelay forwards an explicit keypress without qualification
func (d *Dispatcher) handleSignalRelay(w http.ResponseWriter, req *http.Request, event types.CallEvent, log zerolog.Logger) {
	signal := stringAttr(event.Attrs, "keypress")
	if signal == "" || event.SyntheticID {
		log.Warn().Msg("signal relay missing keypress or call identifier")
		metrics.Get().RecordEventError()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"status":  StatusError,
			"message": "missing required parameters",
		})
		return
	}

	err := d.forwarder.Send(req.Context(), types.OutboundCommand{
		CallID:    event.CallID,
		Subdomain: event.Subdomain,
		Signal:    signal,
	})
	if err != nil {
		log.Error().Err(err).Str("signal", signal).Msg("keypress relay failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  StatusError,
			"message": "failed to send keypress",
		})
		return
	}

	log.Info().Str("signal", signal).Msg("keypress relayed")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  StatusSuccess,
		"message": "Keypress " + signal + " sent for call " + event.CallID,
	})
}

// HandleLeads serves the persisted lead records for one day. Defaults to
// today when no date is given.
func (d *Dispatcher) HandleLeads(w http.ResponseWriter, req *http.Request) {
	date := req.URL.Query().Get("date")
	if date == "" {
		date = d.now().UTC().Format("2006-01-02")
	}

	records, err := d.store.GetLeadRecords(date)
	if err != nil {
		d.logger.Error().Err(err).Str("date", date).Msg("failed to read lead records")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  StatusError,
			"message": "failed to read lead records",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": StatusSuccess,
		"date":   date,
		"count":  len(records),
		"leads":  records,
	})
}

// saveLead persists the qualification outcome. Storage failures are logged
// and never change the webhook response.
func (d *Dispatcher) saveLead(event types.CallEvent, fin types.FinancialProfile, qualified, dataSent bool, log zerolog.Logger) {
	now := d.now().UTC()
	record := types.LeadRecord{
		DateKey:            now.Format("2006-01-02"),
		CallID:             event.CallID,
		Phone:              enrich.NormalizePhone(event.Phone),
		Subdomain:          event.Subdomain,
		Qualified:          qualified,
		DataSent:           dataSent,
		DebtType:           fin.DebtType,
		HasCheckingAccount: fin.HasCheckingAccount,
		EmploymentStatus:   fin.EmploymentStatus,
		ReceivedAt:         now.Format(time.RFC3339),
	}
	if fin.DebtAmount != nil {
		record.DebtAmount = *fin.DebtAmount
	}
	if fin.MonthlyIncome != nil {
		record.MonthlyIncome = *fin.MonthlyIncome
	}

	if err := d.store.SaveLeadRecord(record); err != nil {
		log.Error().Err(err).Msg("failed to persist lead record")
	}
}

// Greeting composes the personalized first message for a resolved caller
func Greeting(p types.CallerProfile) string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return genericGreeting
	}
	greeting := "Hi " + name
	if p.State != "" {
		greeting += " from " + p.State
	}
	return greeting + ", how can I assist you today?"
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
