package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"server/internal/domain"
)

type languageContextKey struct{}
type countryContextKey struct{}

var (
	LanguageKey = languageContextKey{}
	CountryKey  = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// countryDefaults maps an ISO country code to the catalog language spoken
// there. Countries outside the map fall through to the configured default.
var countryDefaults = map[string]string{
	"US": "en-US",
	"GB": "en-GB",
	"ES": "es-ES",
	"MX": "es-MX",
	"FR": "fr-FR",
	"DE": "de-DE",
	"IT": "it-IT",
	"BR": "pt-BR",
	"JP": "ja-JP",
	"KR": "ko-KR",
}

// Language detects the transcription language to preselect for the request
// and stores it in the context. Header hints win over Accept-Language, which
// wins over the GeoIP country of the caller.
func Language(defaultLanguage string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			lang := detectLanguage(r, defaultLanguage, country)
			ctx := context.WithValue(r.Context(), LanguageKey, lang)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLanguage(r *http.Request, fallback string, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Language")); v != "" && domain.SupportedLanguage(v) {
		return v
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return domain.MatchLanguage(accept)
	}
	if lang, ok := countryDefaults[strings.ToUpper(country)]; ok {
		return lang
	}
	if fallback != "" && domain.SupportedLanguage(fallback) {
		return fallback
	}
	return domain.DefaultLanguage
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LanguageFromContext returns the detected language stored in the context.
func LanguageFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LanguageKey).(string); ok {
		return v
	}
	return domain.DefaultLanguage
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the given request.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if region := localeRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func localeRegion(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		if idx := strings.IndexAny(token, "-_"); idx > 0 && idx < len(token)-1 {
			region := token[idx+1:]
			if len(region) == 2 {
				return strings.ToUpper(region)
			}
		}
	}
	return ""
}
