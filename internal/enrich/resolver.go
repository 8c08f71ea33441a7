package enrich

import (
	"context"
	"strings"

	"github.com/globaltelecom/voicebridge/internal/cache"
	"github.com/globaltelecom/voicebridge/internal/metrics"
	"github.com/globaltelecom/voicebridge/internal/types"
	"github.com/rs/zerolog"
)

// Source is one external identity-lookup service. A normal not-found returns
// (zero, false, nil); errors are reserved for transport and protocol failures.
type Source interface {
	Name() string
	Lookup(ctx context.Context, phone string) (types.CallerProfile, bool, error)
}

// Resolver turns phone numbers into caller profiles, consulting the identity
// cache first and then each source in priority order.
type Resolver struct {
	cache   *cache.IdentityCache
	sources []Source
	logger  zerolog.Logger
}

// NewResolver creates a resolver over the given cache and ordered sources
func NewResolver(c *cache.IdentityCache, sources []Source, logger zerolog.Logger) *Resolver {
	return &Resolver{
		cache:   c,
		sources: sources,
		logger:  logger,
	}
}

// Resolve returns the caller profile for rawPhone, or false when no source
// knows the number. Lookup failures degrade to unresolved; they never
// propagate. Unresolved numbers are not cached, so later events retry.
func (r *Resolver) Resolve(ctx context.Context, callID, rawPhone string) (types.CallerProfile, bool) {
	m := metrics.Get()

	phone := NormalizePhone(rawPhone)
	if phone == "" {
		return types.CallerProfile{}, false
	}

	// Key by call so successive events in the same call reuse the entry
	key := callID + "|" + phone

	if profile, ok := r.cache.Get(key); ok {
		m.RecordCacheHit()
		return profile, true
	}
	m.RecordCacheMiss()

	for _, src := range r.sources {
		profile, ok, err := src.Lookup(ctx, phone)
		if err != nil {
			r.logger.Warn().Err(err).Str("source", src.Name()).Str("phone", phone).Msg("lookup failed")
			m.RecordLookupError(src.Name())
			continue
		}
		// A record with only extra attributes (e.g. the platform's own
		// call_id for an anonymous caller) still counts as resolved.
		if !ok || (profile.IsEmpty() && len(profile.Extra) == 0) {
			continue
		}

		m.RecordLookupHit(src.Name())
		r.cache.Put(key, profile)
		r.logger.Info().Str("source", src.Name()).Str("call_id", callID).Msg("caller resolved")
		return profile, true
	}

	return types.CallerProfile{}, false
}

// NormalizePhone reduces a phone number to canonical "+digits" form.
// Returns "" when the input carries no digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}
