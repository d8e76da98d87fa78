package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/httpclients"
)

type capturedRequest struct {
	Path   string
	Header http.Header
	Body   MessagesRequest
}

func newVendor(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest, *atomic.Int32) {
	t.Helper()
	captured := &capturedRequest{}
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		captured.Path = r.URL.Path
		captured.Header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured, calls
}

func newAdapter(baseURL, key string) *Adapter {
	return NewAdapter(httpclients.NewClient("test", 5*time.Second), Config{APIKey: key, BaseURL: baseURL})
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name         string
		history      []llm.Turn
		wantSystem   string
		wantMessages []Message
	}{
		{
			name: "first system turn is lifted",
			history: []llm.Turn{
				{Role: llm.RoleSystem, Content: "You are terse."},
				{Role: llm.RoleUser, Content: "Where is Kyoto?"},
			},
			wantSystem:   "You are terse.",
			wantMessages: []Message{{Role: "user", Content: "Where is Kyoto?"}},
		},
		{
			name: "later system turns are dropped",
			history: []llm.Turn{
				{Role: llm.RoleUser, Content: "a"},
				{Role: llm.RoleSystem, Content: "first"},
				{Role: llm.RoleAssistant, Content: "b"},
				{Role: llm.RoleSystem, Content: "second"},
				{Role: llm.RoleUser, Content: "c"},
			},
			wantSystem: "first",
			wantMessages: []Message{
				{Role: "user", Content: "a"},
				{Role: "assistant", Content: "b"},
				{Role: "user", Content: "c"},
			},
		},
		{
			name:         "no system turn",
			history:      []llm.Turn{{Role: llm.RoleUser, Content: "hi"}},
			wantMessages: []Message{{Role: "user", Content: "hi"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(Config{Model: DefaultModel, MaxTokens: DefaultMaxTokens}, tt.history)
			assert.Equal(t, tt.wantSystem, req.System)
			assert.Equal(t, tt.wantMessages, req.Messages)
			assert.Equal(t, DefaultModel, req.Model)
			assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		})
	}
}

func TestAdapter_Send(t *testing.T) {
	srv, captured, calls := newVendor(t, http.StatusOK,
		`{"id":"msg_1","type":"message","content":[{"type":"text","text":"Kyoto is in Japan."}]}`)

	text, err := newAdapter(srv.URL, "ak-test").Send(context.Background(), llm.ModelClaude3, []llm.Turn{
		{Role: llm.RoleSystem, Content: "Be brief."},
		{Role: llm.RoleUser, Content: "Where is Kyoto?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kyoto is in Japan.", text)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, "/messages", captured.Path)
	assert.Equal(t, "ak-test", captured.Header.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", captured.Header.Get("anthropic-version"))
	assert.Empty(t, captured.Header.Get("Authorization"))
	assert.Equal(t, "Be brief.", captured.Body.System)
	assert.Equal(t, []Message{{Role: "user", Content: "Where is Kyoto?"}}, captured.Body.Messages)
}

func TestAdapter_MissingKeyMakesNoCall(t *testing.T) {
	srv, _, calls := newVendor(t, http.StatusOK, `{}`)

	_, err := newAdapter(srv.URL, "").Send(context.Background(), llm.ModelClaude3,
		[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
	assert.Equal(t, "Claude API key not configured", err.Error())
	assert.Equal(t, int32(0), calls.Load())
}

func TestAdapter_Responses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantText    string
		wantMessage string
		wantKind    llm.ErrorKind
	}{
		{
			name:        "vendor error envelope",
			status:      http.StatusTooManyRequests,
			body:        `{"type":"error","error":{"type":"rate_limit_error","message":"Rate limited"}}`,
			wantMessage: "Rate limited",
			wantKind:    llm.KindProviderError,
		},
		{
			name:        "error body without message",
			status:      http.StatusInternalServerError,
			body:        `{"type":"error"}`,
			wantMessage: "Unknown error",
			wantKind:    llm.KindProviderError,
		},
		{
			name:     "empty content",
			status:   http.StatusOK,
			body:     `{"content":[]}`,
			wantText: llm.NoResponsePlaceholder,
		},
		{
			name:     "not json",
			status:   http.StatusOK,
			body:     `not json`,
			wantKind: llm.KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newVendor(t, tt.status, tt.body)

			text, err := newAdapter(srv.URL, "ak-test").Send(context.Background(), llm.ModelClaude3,
				[]llm.Turn{{Role: llm.RoleUser, Content: "hi"}})
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, llm.Classify(err))
			if tt.wantKind == llm.KindProviderError {
				var providerErr *llm.ProviderError
				require.ErrorAs(t, err, &providerErr)
				assert.Equal(t, tt.status, providerErr.Status)
				assert.Equal(t, tt.wantMessage, providerErr.Message)
			}
		})
	}
}
