package ifood

import "strings"

// Headers is the captured header bundle replayed on direct API calls.
type Headers map[string]string

// Allow-listed header names propagated from browser-observed requests.
// Everything else observed is discarded.
var requiredHeaderKeys = []string{
	"authorization",
	"x-ifood-device-id",
	"x-ifood-session-id",
	"x-ifood-user-id",
	"x-client-application-key",
	"x-device-model",
	"x-px-cookies",
	"browser",
	"country",
	"test_merchants",
	"experiment_details",
	"experiment_variant",
	"app_version",
	"platform",
	"account_id",
	"access_key",
	"secret_key",
	"accept-language",
	"user-agent",
}

const (
	fixedAcceptHeader  = "application/json, text/plain, */*"
	fixedOriginHeader  = "https://www.ifood.com.br"
	fixedRefererHeader = "https://www.ifood.com.br/"
)

// PickHeaders keeps only allow-listed keys from an observed request header
// set and injects the fixed accept/origin/referer values.
func PickHeaders(observed map[string]string) Headers {
	picked := Headers{
		"accept":  fixedAcceptHeader,
		"origin":  fixedOriginHeader,
		"referer": fixedRefererHeader,
	}
	lowered := make(map[string]string, len(observed))
	for key, value := range observed {
		lowered[strings.ToLower(strings.TrimSpace(key))] = value
	}
	for _, key := range requiredHeaderKeys {
		if value := lowered[key]; value != "" {
			picked[key] = value
		}
	}
	return picked
}

// MergeHeaders merges a freshly observed header set into base through the
// same allow-list. Later observations win, since tokens rotate mid-session.
func MergeHeaders(base Headers, observed map[string]string) Headers {
	merged := make(Headers, len(base))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range PickHeaders(observed) {
		merged[key] = value
	}
	return merged
}
