package rest_test

import (
	"net/http"
	"testing"

	storefront "github.com/lumina-metro/storefront-go"
	"github.com/lumina-metro/storefront-go/rest"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		raw         string
		wantKind    storefront.BodyKind
	}{
		{"json content type", 200, "application/json", `{"result":1}`, storefront.BodyJSON},
		{"json shape without header", 200, "text/plain", `{"result":1}`, storefront.BodyJSON},
		{"json array", 200, "application/json", `[1,2]`, storefront.BodyJSON},
		{"plain text", 200, "text/plain", "all good", storefront.BodyText},
		{"html error page", 502, "text/html", "<html>Bad Gateway</html>", storefront.BodyText},
		{"broken json degrades to text", 200, "application/json", `{"result":`, storefront.BodyText},
		{"no content", http.StatusNoContent, "", "", storefront.BodyEmpty},
		{"empty body", 200, "application/json", "", storefront.BodyEmpty},
		{"whitespace only", 200, "", "  \n", storefront.BodyEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rest.ParseBody(tt.status, tt.contentType, []byte(tt.raw))
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestBodyMessage(t *testing.T) {
	b := rest.ParseBody(500, "application/json", []byte(`{"error":"boom"}`))
	if got := b.Message("fallback"); got != "boom" {
		t.Fatalf("Message = %q, want error field", got)
	}

	b = rest.ParseBody(500, "text/plain", []byte("boom"))
	if got := b.Message("fallback"); got != "boom" {
		t.Fatalf("Message = %q, want raw text", got)
	}

	b = rest.ParseBody(204, "", nil)
	if got := b.Message("fallback"); got != "fallback" {
		t.Fatalf("Message = %q, want fallback", got)
	}
}

func TestExtractResult(t *testing.T) {
	enveloped := rest.ParseBody(200, "application/json", []byte(`{"result":{"id":"p-1"},"code":1000}`))
	m, ok := rest.ExtractResult(enveloped).(map[string]any)
	if !ok || m["id"] != "p-1" {
		t.Fatalf("ExtractResult(enveloped) = %v", m)
	}

	bare := rest.ParseBody(200, "application/json", []byte(`{"id":"p-2"}`))
	m, ok = rest.ExtractResult(bare).(map[string]any)
	if !ok || m["id"] != "p-2" {
		t.Fatalf("ExtractResult(bare) = %v", m)
	}

	// An explicit null result falls back to the whole payload.
	nullRes := rest.ParseBody(200, "application/json", []byte(`{"result":null,"code":1000}`))
	m, ok = rest.ExtractResult(nullRes).(map[string]any)
	if !ok || m["code"] != float64(1000) {
		t.Fatalf("ExtractResult(null result) = %v", m)
	}

	text := rest.ParseBody(200, "text/plain", []byte("done"))
	m, ok = rest.ExtractResult(text).(map[string]any)
	if !ok || m["message"] != "done" {
		t.Fatalf("ExtractResult(text) = %v", m)
	}

	if got := rest.ExtractResult(rest.ParseBody(204, "", nil)); got != nil {
		t.Fatalf("ExtractResult(empty) = %v, want nil", got)
	}
}

func TestExtractList(t *testing.T) {
	enveloped := rest.ParseBody(200, "application/json", []byte(`{"result":[{"id":1},{"id":2}]}`))
	if got := rest.ExtractList(enveloped); len(got) != 2 {
		t.Fatalf("ExtractList(enveloped) = %v", got)
	}

	bare := rest.ParseBody(200, "application/json", []byte(`[{"id":1}]`))
	if got := rest.ExtractList(bare); len(got) != 1 {
		t.Fatalf("ExtractList(bare) = %v", got)
	}

	object := rest.ParseBody(200, "application/json", []byte(`{"result":{"id":1}}`))
	if got := rest.ExtractList(object); len(got) != 0 {
		t.Fatalf("ExtractList(object result) = %v, want empty", got)
	}

	if got := rest.ExtractList(rest.ParseBody(200, "text/plain", []byte("nope"))); len(got) != 0 {
		t.Fatalf("ExtractList(text) = %v, want empty", got)
	}
}
