package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/globaltelecom/voicebridge/internal/cache"
	"github.com/globaltelecom/voicebridge/internal/httpx"
	"github.com/globaltelecom/voicebridge/internal/types"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	name    string
	profile types.CallerProfile
	found   bool
	err     error
	calls   int32
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Lookup(ctx context.Context, phone string) (types.CallerProfile, bool, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.profile, s.found, s.err
}

func newTestResolver(sources ...Source) *Resolver {
	return NewResolver(cache.NewIdentityCache(time.Hour), sources, zerolog.Nop())
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+15551234567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"(555) 123-4567", "+5551234567"},
		{"555.123.4567", "+5551234567"},
		{"", ""},
		{"no digits", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolvePrimarySource(t *testing.T) {
	primary := &fakeSource{name: "a", profile: types.CallerProfile{FirstName: "Jane"}, found: true}
	fallback := &fakeSource{name: "b"}
	r := newTestResolver(primary, fallback)

	profile, ok := r.Resolve(context.Background(), "call-1", "+15551234567")
	if !ok {
		t.Fatal("expected resolution")
	}
	if profile.FirstName != "Jane" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if fallback.calls != 0 {
		t.Error("fallback source consulted despite primary hit")
	}
}

func TestResolveFallbackSource(t *testing.T) {
	primary := &fakeSource{name: "a", found: false}
	fallback := &fakeSource{name: "b", profile: types.CallerProfile{FirstName: "John", State: "CA"}, found: true}
	r := newTestResolver(primary, fallback)

	profile, ok := r.Resolve(context.Background(), "call-1", "+15551234567")
	if !ok {
		t.Fatal("expected resolution via fallback")
	}
	if profile.FirstName != "John" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("expected both sources consulted once, got %d/%d", primary.calls, fallback.calls)
	}
}

func TestResolveSourceErrorDegradesToNextSource(t *testing.T) {
	primary := &fakeSource{name: "a", err: errors.New("timeout")}
	fallback := &fakeSource{name: "b", profile: types.CallerProfile{FirstName: "John"}, found: true}
	r := newTestResolver(primary, fallback)

	profile, ok := r.Resolve(context.Background(), "call-1", "+15551234567")
	if !ok || profile.FirstName != "John" {
		t.Errorf("expected fallback result, got %+v ok=%v", profile, ok)
	}
}

func TestResolveCachedHitSkipsLookup(t *testing.T) {
	src := &fakeSource{name: "a", profile: types.CallerProfile{FirstName: "Jane"}, found: true}
	r := newTestResolver(src)

	if _, ok := r.Resolve(context.Background(), "call-1", "+15551234567"); !ok {
		t.Fatal("expected first resolution")
	}
	if _, ok := r.Resolve(context.Background(), "call-1", "+15551234567"); !ok {
		t.Fatal("expected cached resolution")
	}

	if src.calls != 1 {
		t.Errorf("expected 1 lookup for cached key, got %d", src.calls)
	}
}

func TestResolveCacheKeyedByCall(t *testing.T) {
	src := &fakeSource{name: "a", profile: types.CallerProfile{FirstName: "Jane"}, found: true}
	r := newTestResolver(src)

	r.Resolve(context.Background(), "call-1", "+15551234567")
	r.Resolve(context.Background(), "call-2", "+15551234567")

	if src.calls != 2 {
		t.Errorf("expected separate lookups per call, got %d", src.calls)
	}
}

func TestResolveUnresolvedNotCached(t *testing.T) {
	src := &fakeSource{name: "a", found: false}
	r := newTestResolver(src)

	if _, ok := r.Resolve(context.Background(), "call-1", "+15551234567"); ok {
		t.Fatal("expected unresolved")
	}
	if _, ok := r.Resolve(context.Background(), "call-1", "+15551234567"); ok {
		t.Fatal("expected unresolved again")
	}

	// No negative caching: the second event retried the lookup
	if src.calls != 2 {
		t.Errorf("expected 2 lookups, got %d", src.calls)
	}
}

func TestResolveAnonymousRecordWithExtrasOnly(t *testing.T) {
	src := &fakeSource{
		name:    "a",
		profile: types.CallerProfile{Extra: map[string]string{"call_id": "td-real-42"}},
		found:   true,
	}
	r := newTestResolver(src)

	profile, ok := r.Resolve(context.Background(), "call-1", "+15551234567")
	if !ok {
		t.Fatal("expected a record with only extras to resolve")
	}
	if profile.Extra["call_id"] != "td-real-42" {
		t.Errorf("expected call_id preserved, got %v", profile.Extra)
	}

	// And it is cached like any other resolution
	if _, ok := r.Resolve(context.Background(), "call-1", "+15551234567"); !ok {
		t.Fatal("expected cached resolution")
	}
	if src.calls != 1 {
		t.Errorf("expected 1 lookup, got %d", src.calls)
	}
}

func TestResolveEmptyPhone(t *testing.T) {
	src := &fakeSource{name: "a", found: true, profile: types.CallerProfile{FirstName: "Jane"}}
	r := newTestResolver(src)

	if _, ok := r.Resolve(context.Background(), "call-1", ""); ok {
		t.Error("expected unresolved for empty phone")
	}
	if src.calls != 0 {
		t.Error("expected no lookup for empty phone")
	}
}

func testHTTPClient() *httpx.Client {
	return httpx.NewClient(time.Second, 2*time.Second, 0, time.Millisecond, zerolog.Nop())
}

func TestTextBackLookupNormalizesListWrappedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("phone") != "+15551234567" {
			t.Errorf("unexpected phone %q", r.URL.Query().Get("phone"))
		}
		if r.Header.Get("token") != "tok" || r.Header.Get("secret") != "sec" {
			t.Error("missing auth headers")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"info":{"fName":["Jane"],"lName":["Doe"],"stateCode":["TX"],"email":["jane@example.com"]}}`))
	}))
	defer srv.Close()

	src := NewTextBackSource(testHTTPClient(), srv.URL, "tok", "sec")
	profile, ok, err := src.Lookup(context.Background(), "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
	if profile.FirstName != "Jane" || profile.LastName != "Doe" || profile.State != "TX" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if profile.Extra["email"] != "jane@example.com" {
		t.Errorf("expected extra field preserved, got %v", profile.Extra)
	}
}

func TestTextBackLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := NewTextBackSource(testHTTPClient(), srv.URL, "tok", "sec")
	_, ok, err := src.Lookup(context.Background(), "+15551234567")
	if err != nil {
		t.Fatalf("not-found must not error: %v", err)
	}
	if ok {
		t.Error("expected miss")
	}
}

func TestTextBackLookupEmptyInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{}}`))
	}))
	defer srv.Close()

	src := NewTextBackSource(testHTTPClient(), srv.URL, "tok", "sec")
	_, ok, err := src.Lookup(context.Background(), "+15551234567")
	if err != nil || ok {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestOmniaLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "key" {
			t.Error("missing API key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"call_id":"td-99","first_name":"John","last_name":"Smith","state":"FL","city":"Miami"}`))
	}))
	defer srv.Close()

	src := NewOmniaSource(testHTTPClient(), srv.URL, "key")
	profile, ok, err := src.Lookup(context.Background(), "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected match")
	}
	if profile.FirstName != "John" || profile.State != "FL" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if profile.Extra["call_id"] != "td-99" || profile.Extra["city"] != "Miami" {
		t.Errorf("expected extras preserved, got %v", profile.Extra)
	}
}

func TestOmniaAnonymousCallerResolvesWithCallID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"call_id":"td-real-42"}`))
	}))
	defer srv.Close()

	src := NewOmniaSource(testHTTPClient(), srv.URL, "key")
	r := newTestResolver(src)

	profile, ok := r.Resolve(context.Background(), "call-1", "+15551234567")
	if !ok {
		t.Fatal("expected a name-less record carrying the call ID to resolve")
	}
	if profile.Extra["call_id"] != "td-real-42" {
		t.Errorf("expected call_id to survive resolution, got %v", profile.Extra)
	}
}

func TestOmniaLookupEmptyRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	src := NewOmniaSource(testHTTPClient(), srv.URL, "key")
	_, ok, err := src.Lookup(context.Background(), "+15551234567")
	if err != nil || ok {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}
