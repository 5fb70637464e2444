package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	storefront "github.com/lumina-metro/storefront-go"
)

// ParseBody turns a raw response body into a tagged variant: Empty for 204
// or bodiless responses, JSON when the content type or the text shape says
// JSON and decoding succeeds, Text otherwise. A JSON-looking body that
// fails to decode degrades to Text rather than an error.
func ParseBody(status int, contentType string, raw []byte) storefront.Body {
	text := string(raw)
	trimmed := strings.TrimSpace(text)
	if status == http.StatusNoContent || trimmed == "" {
		return storefront.Body{Kind: storefront.BodyEmpty}
	}

	looksJSON := strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
	if strings.Contains(contentType, "application/json") || looksJSON {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return storefront.Body{Kind: storefront.BodyJSON, JSON: v}
		}
	}
	return storefront.Body{Kind: storefront.BodyText, Text: text}
}

// ExtractResult unwraps the backend's response envelope. Endpoints answer
// either {result: T} or a bare T; the presence of a "result" field decides
// which. Text bodies surface as their uniform message map, empty bodies as
// nil.
func ExtractResult(b storefront.Body) any {
	switch b.Kind {
	case storefront.BodyJSON:
		if m, ok := b.JSON.(map[string]any); ok {
			if r, ok := m["result"]; ok && r != nil {
				return r
			}
		}
		return b.JSON
	case storefront.BodyText:
		return b.Map()
	default:
		return nil
	}
}

// ExtractList unwraps an envelope expected to carry an array: {result: [..]}
// or a bare [..]. Anything else yields an empty list.
func ExtractList(b storefront.Body) []any {
	if b.Kind != storefront.BodyJSON {
		return []any{}
	}
	if m, ok := b.JSON.(map[string]any); ok {
		if arr, ok := m["result"].([]any); ok {
			return arr
		}
		return []any{}
	}
	if arr, ok := b.JSON.([]any); ok {
		return arr
	}
	return []any{}
}
