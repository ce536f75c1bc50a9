package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func detectFor(t *testing.T, lookup CountryLookup, setup func(r *http.Request)) (string, string) {
	t.Helper()
	var gotLang, gotCountry string
	h := Language("en-US", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = LanguageFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return gotLang, gotCountry
}

func TestLanguageHeaderWins(t *testing.T) {
	lang, _ := detectFor(t, nil, func(r *http.Request) {
		r.Header.Set("X-Language", "ja-JP")
		r.Header.Set("Accept-Language", "de-DE")
	})
	if lang != "ja-JP" {
		t.Fatalf("language = %q, want ja-JP", lang)
	}
}

func TestLanguageHeaderOutsideCatalogIsIgnored(t *testing.T) {
	lang, _ := detectFor(t, nil, func(r *http.Request) {
		r.Header.Set("X-Language", "zz-ZZ")
	})
	if lang != "en-US" {
		t.Fatalf("language = %q, want fallback en-US", lang)
	}
}

func TestAcceptLanguageMatchesCatalog(t *testing.T) {
	lang, country := detectFor(t, nil, func(r *http.Request) {
		r.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.5")
	})
	if lang != "pt-BR" {
		t.Fatalf("language = %q, want pt-BR", lang)
	}
	if country != "BR" {
		t.Fatalf("country = %q, want BR from the locale region", country)
	}
}

func TestCountryLookupFallback(t *testing.T) {
	lookup := func(ip string) (string, error) { return "KR", nil }
	lang, country := detectFor(t, lookup, func(r *http.Request) {
		r.RemoteAddr = "203.0.113.9:4444"
	})
	if lang != "ko-KR" {
		t.Fatalf("language = %q, want ko-KR via country", lang)
	}
	if country != "KR" {
		t.Fatalf("country = %q, want KR", country)
	}
}

func TestUnknownCountryUsesDefault(t *testing.T) {
	lookup := func(ip string) (string, error) { return "AQ", nil }
	lang, _ := detectFor(t, lookup, nil)
	if lang != "en-US" {
		t.Fatalf("language = %q, want default en-US", lang)
	}
}

func TestCountryHeaderHint(t *testing.T) {
	lang, country := detectFor(t, nil, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "mx")
	})
	if country != "MX" {
		t.Fatalf("country = %q, want MX", country)
	}
	if lang != "es-MX" {
		t.Fatalf("language = %q, want es-MX", lang)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	req.RemoteAddr = "10.0.0.2:9999"
	if got := ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("ClientIP = %q", got)
	}
}
