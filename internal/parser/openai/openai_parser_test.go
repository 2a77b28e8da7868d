package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/config"
	"invoicerecon/internal/parser"
	"invoicerecon/internal/parser/openai"
	"invoicerecon/internal/port"
)

func newTestParser(serverURL string) *openai.Parser {
	return openai.NewParserWithEndpoint(&config.ParserProviderConfig{
		Provider:    "openai",
		APIKey:      "test-openai-key",
		TimeoutSecs: 30,
	}, serverURL)
}

func chatResponse(content, finish string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"content": content}, "finish_reason": finish},
		},
	}
}

func TestParser_Parse_PDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])

		msgs := reqBody["messages"].([]interface{})
		assert.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
		content := msgs[1].(map[string]interface{})["content"].([]interface{})
		file := content[0].(map[string]interface{})["file"].(map[string]interface{})
		assert.Equal(t, "inv-7.pdf", file["filename"])

		_ = json.NewEncoder(w).Encode(chatResponse(`{"header": {}, "line_items": []}`, "stop"))
	}))
	defer server.Close()

	out, err := newTestParser(server.URL).Parse(context.Background(), port.ParseInput{
		FileBytes: []byte("%PDF-1.4"), ContentType: "application/pdf", DocumentName: "inv-7.pdf",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"header": {}, "line_items": []}`, out.RawText)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    interface{}
		wantMsg string
	}{
		{"no_choices", http.StatusOK, map[string]interface{}{"choices": []interface{}{}}, "no choices"},
		{"truncated", http.StatusOK, chatResponse("{", "length"), "truncated"},
		{"empty", http.StatusOK, chatResponse("", "stop"), "no content"},
		{"bad_request", http.StatusBadRequest, map[string]interface{}{"error": "bad"}, "status 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			_, err := newTestParser(server.URL).Parse(context.Background(), port.ParseInput{
				FileBytes: []byte("x"), ContentType: "image/png",
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParser_Parse_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestParser(server.URL).Parse(context.Background(), port.ParseInput{
		FileBytes: []byte("x"), ContentType: "application/pdf",
	})

	var rl *parser.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "openai", rl.Provider)
}
