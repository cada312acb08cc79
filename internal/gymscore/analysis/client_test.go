package analysis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name string `json:"name"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

func chatCompletionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   DefaultModel,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientParams{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
}

func TestClient_Analyze(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req chatRequest
		assert.NoError(t, json.Unmarshal(raw, &req))

		assert.Equal(t, DefaultModel, req.Model)
		if !assert.Len(t, req.Messages, 1) || !assert.Len(t, req.Messages[0].Content, 2) {
			http.Error(w, "bad request shape", http.StatusBadRequest)
			return
		}
		assert.Equal(t, "image_url", req.Messages[0].Content[0].Type)
		assert.True(t, strings.HasPrefix(req.Messages[0].Content[0].ImageURL.URL, "data:image/png;base64,"))
		assert.Contains(t, req.Messages[0].Content[1].Text, "physique judge")
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		assert.Equal(t, "PhysiqueRatings", req.ResponseFormat.JSONSchema.Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody("```json\n{\"chest\":8,\"legs\":7,\"arms\":6,\"back\":9}\n```"))
	})

	req := AnalyzeRequest{Image: []byte("fake-png-bytes"), MimeType: "image/png"}
	text, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, text, `"chest":8`)

	// same image served from cache
	again, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, text, again)
	assert.Equal(t, int32(1), calls.Load())

	// different image goes to the service
	_, err = client.Analyze(context.Background(), AnalyzeRequest{Image: []byte("other"), MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Analyze_ServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad image","type":"invalid_request_error"}}`)
	})

	_, err := client.Analyze(context.Background(), AnalyzeRequest{Image: []byte("x"), MimeType: "image/jpeg"})
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestClient_Analyze_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := client.Analyze(context.Background(), AnalyzeRequest{Image: []byte("x")})
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
}

func TestClient_Analyze_EmptyAnswer(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody(""))
	})

	req := AnalyzeRequest{Image: []byte("x"), MimeType: "image/jpeg"}
	text, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, text)

	// empty answers are not cached
	_, err = client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Analyze_EmptyImage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("must not call the service")
	})

	_, err := client.Analyze(context.Background(), AnalyzeRequest{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestRatingsSchema(t *testing.T) {
	raw, err := json.Marshal(ratingsSchemaParam.Schema)
	require.NoError(t, err)

	var schema struct {
		Properties           map[string]json.RawMessage `json:"properties"`
		Required             []string                   `json:"required"`
		AdditionalProperties bool                       `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Len(t, schema.Properties, 4)
	assert.ElementsMatch(t, []string{"chest", "legs", "arms", "back"}, schema.Required)
	assert.False(t, schema.AdditionalProperties)
}
