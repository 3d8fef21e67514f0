package ifood

import "testing"

func TestPickHeadersKeepsOnlyAllowListedKeys(t *testing.T) {
	observed := map[string]string{
		"Authorization":      "Bearer token-1",
		"X-Ifood-Session-Id": "session-1",
		"Cookie":             "tracking=abc",
		"Content-Length":     "123",
		"user-agent":         "Mozilla/5.0",
		"secret_key":         "sk-1",
	}

	picked := PickHeaders(observed)

	if got := picked["authorization"]; got != "Bearer token-1" {
		t.Fatalf("expected authorization to be kept, got %q", got)
	}
	if got := picked["x-ifood-session-id"]; got != "session-1" {
		t.Fatalf("expected session id to be kept, got %q", got)
	}
	if got := picked["user-agent"]; got != "Mozilla/5.0" {
		t.Fatalf("expected user-agent to be kept, got %q", got)
	}
	if got := picked["secret_key"]; got != "sk-1" {
		t.Fatalf("expected secret_key to be kept, got %q", got)
	}
	if _, ok := picked["cookie"]; ok {
		t.Fatal("did not expect cookie header to survive the allow-list")
	}
	if _, ok := picked["content-length"]; ok {
		t.Fatal("did not expect content-length header to survive the allow-list")
	}
}

func TestPickHeadersInjectsFixedValues(t *testing.T) {
	picked := PickHeaders(nil)

	if got := picked["accept"]; got != "application/json, text/plain, */*" {
		t.Fatalf("unexpected accept header: %q", got)
	}
	if got := picked["origin"]; got != "https://www.ifood.com.br" {
		t.Fatalf("unexpected origin header: %q", got)
	}
	if got := picked["referer"]; got != "https://www.ifood.com.br/" {
		t.Fatalf("unexpected referer header: %q", got)
	}
}

func TestMergeHeadersLaterObservationWins(t *testing.T) {
	base := Headers{
		"authorization": "Bearer old",
		"access_key":    "ak-1",
	}
	merged := MergeHeaders(base, map[string]string{
		"Authorization": "Bearer new",
		"secret_key":    "sk-1",
	})

	if got := merged["authorization"]; got != "Bearer new" {
		t.Fatalf("expected fresh authorization to win, got %q", got)
	}
	if got := merged["access_key"]; got != "ak-1" {
		t.Fatalf("expected existing access_key to survive, got %q", got)
	}
	if got := merged["secret_key"]; got != "sk-1" {
		t.Fatalf("expected secret_key to be merged in, got %q", got)
	}
	if got := base["authorization"]; got != "Bearer old" {
		t.Fatalf("expected base to stay untouched, got %q", got)
	}
}
