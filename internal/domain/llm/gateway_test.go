package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	calls   atomic.Int32
	mu      sync.Mutex
	models  []ModelID
	history [][]Turn
	SendFn  func(ctx context.Context, model ModelID, history []Turn) (string, error)
}

func (f *fakeAdapter) Send(ctx context.Context, model ModelID, history []Turn) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.models = append(f.models, model)
	f.history = append(f.history, history)
	f.mu.Unlock()
	if f.SendFn != nil {
		return f.SendFn(ctx, model, history)
	}
	return "ok", nil
}

func newFakes() (map[ProviderKind]Adapter, map[ProviderKind]*fakeAdapter) {
	fakes := map[ProviderKind]*fakeAdapter{
		ProviderOpenAI:    {},
		ProviderAnthropic: {},
		ProviderGoogle:    {},
	}
	adapters := make(map[ProviderKind]Adapter, len(fakes))
	for kind, fake := range fakes {
		adapters[kind] = fake
	}
	return adapters, fakes
}

func totalCalls(fakes map[ProviderKind]*fakeAdapter) int32 {
	var n int32
	for _, fake := range fakes {
		n += fake.calls.Load()
	}
	return n
}

func TestGateway_DispatchesToExactlyOneAdapter(t *testing.T) {
	tests := []struct {
		model ModelID
		want  ProviderKind
	}{
		{ModelGPT4, ProviderOpenAI},
		{ModelClaude3, ProviderAnthropic},
		{ModelGeminiPro, ProviderGoogle},
	}

	for _, tt := range tests {
		t.Run(string(tt.model), func(t *testing.T) {
			adapters, fakes := newFakes()
			gw := NewGateway(adapters)

			_, err := gw.Generate(context.Background(), string(tt.model), []Turn{{Role: RoleUser, Content: "hi"}})
			require.NoError(t, err)

			assert.Equal(t, int32(1), fakes[tt.want].calls.Load())
			assert.Equal(t, int32(1), totalCalls(fakes))
			assert.Equal(t, []ModelID{tt.model}, fakes[tt.want].models)
		})
	}
}

func TestGateway_Scenario_TripPlanning(t *testing.T) {
	adapters, fakes := newFakes()
	fakes[ProviderOpenAI].SendFn = func(context.Context, ModelID, []Turn) (string, error) {
		return "Try Kyoto.", nil
	}
	gw := NewGateway(adapters)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	gw.now = func() time.Time { return fixed }
	gw.newID = func() string { return "msg_fixed" }

	history := []Turn{{Role: RoleUser, Content: "Where should I go in spring?"}}
	reply, err := gw.Generate(context.Background(), "gpt-4", history)

	require.NoError(t, err)
	assert.Equal(t, "Try Kyoto.", reply.Content)
	assert.Equal(t, RoleAssistant, reply.Role)
	assert.Equal(t, "msg_fixed", reply.ID)
	assert.Equal(t, fixed.UTC(), reply.Timestamp)
	assert.Equal(t, history, fakes[ProviderOpenAI].history[0])
}

func TestGateway_FreshIDPerReply(t *testing.T) {
	adapters, _ := newFakes()
	gw := NewGateway(adapters)
	history := []Turn{{Role: RoleUser, Content: "hi"}}

	first, err := gw.Generate(context.Background(), "claude-3", history)
	require.NoError(t, err)
	second, err := gw.Generate(context.Background(), "claude-3", history)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestGateway_UnsupportedModel(t *testing.T) {
	adapters, fakes := newFakes()
	gw := NewGateway(adapters)

	for _, model := range []string{"unknown-model", "", "GPT-4", "gpt-4o"} {
		_, err := gw.Generate(context.Background(), model, []Turn{{Role: RoleUser, Content: "hi"}})

		gwErr, ok := AsGatewayError(err)
		require.True(t, ok, model)
		assert.Equal(t, KindUnsupportedModel, gwErr.Kind)
		assert.Contains(t, gwErr.Error(), "Unsupported model")
	}
	assert.Zero(t, totalCalls(fakes))
}

func TestGateway_InvalidHistory(t *testing.T) {
	adapters, fakes := newFakes()
	gw := NewGateway(adapters)

	tests := []struct {
		name    string
		history []Turn
		want    error
	}{
		{name: "empty", history: nil, want: ErrEmptyHistory},
		{name: "bad role", history: []Turn{{Role: "tool", Content: "x"}}, want: ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.Generate(context.Background(), "gpt-4", tt.history)

			gwErr, ok := AsGatewayError(err)
			require.True(t, ok)
			assert.Equal(t, KindInvalidRequest, gwErr.Kind)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, totalCalls(fakes))
}

func TestGateway_WrapsAdapterFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "missing credential",
			err:      MissingCredentialError("OpenAI"),
			wantKind: KindMissingCredential,
			wantMsg:  "OpenAI API key not configured",
		},
		{
			name:     "vendor error",
			err:      &ProviderError{Provider: "OpenAI", Status: 429, Message: "Rate limit reached"},
			wantKind: KindProviderError,
			wantMsg:  "OpenAI API error: 429 - Rate limit reached",
		},
		{
			name:     "malformed body",
			err:      errors.Join(ErrMalformedResponse, errors.New("invalid character")),
			wantKind: KindMalformedResponse,
		},
		{
			name:     "network",
			err:      errors.New("dial tcp: connection refused"),
			wantKind: KindTransport,
			wantMsg:  "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapters, fakes := newFakes()
			fakes[ProviderOpenAI].SendFn = func(context.Context, ModelID, []Turn) (string, error) {
				return "", tt.err
			}
			gw := NewGateway(adapters)

			reply, err := gw.Generate(context.Background(), "gpt-4", []Turn{{Role: RoleUser, Content: "hi"}})

			assert.Nil(t, reply)
			gwErr, ok := AsGatewayError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, gwErr.Kind)
			assert.Equal(t, "gpt-4", gwErr.Model)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, gwErr.Message)
			}
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, int32(1), fakes[ProviderOpenAI].calls.Load(), "no retry")
			assert.Equal(t, int32(1), totalCalls(fakes), "no fallback")
		})
	}
}

func TestGateway_MissingAdapterIsMissingCredential(t *testing.T) {
	gw := NewGateway(map[ProviderKind]Adapter{})

	_, err := gw.Generate(context.Background(), "gemini-pro", []Turn{{Role: RoleUser, Content: "hi"}})

	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindMissingCredential, gwErr.Kind)
}

func TestGateway_ConcurrentUse(t *testing.T) {
	adapters, fakes := newFakes()
	gw := NewGateway(adapters)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := SupportedModels()[i%3]
			_, err := gw.Generate(context.Background(), string(model), []Turn{{Role: RoleUser, Content: "hi"}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(20), totalCalls(fakes))
}

func TestResolveModel(t *testing.T) {
	for _, model := range SupportedModels() {
		_, _, ok := ResolveModel(string(model))
		assert.True(t, ok, model)
	}
	_, _, ok := ResolveModel("mistral")
	assert.False(t, ok)
}
