package inference

import (
	"context"
	"time"

	"multichat/internal/domain/llm"
	"multichat/internal/infrastructure/logger"
	"multichat/internal/infrastructure/metrics"
)

// instrumentedAdapter records call latency and failures for one provider.
type instrumentedAdapter struct {
	provider llm.ProviderKind
	next     llm.Adapter
}

func instrument(provider llm.ProviderKind, next llm.Adapter) llm.Adapter {
	return &instrumentedAdapter{provider: provider, next: next}
}

func (a *instrumentedAdapter) Send(ctx context.Context, model llm.ModelID, history []llm.Turn) (string, error) {
	start := time.Now()
	text, err := a.next.Send(ctx, model, history)
	elapsed := time.Since(start)

	metrics.RecordLLMDuration(string(model), string(a.provider), elapsed.Seconds())
	if err != nil {
		kind := llm.Classify(err)
		metrics.RecordProviderError(string(a.provider), string(kind))
		log := logger.GetLogger()
		log.Warn().
			Str("provider", string(a.provider)).
			Str("model", string(model)).
			Str("error_kind", string(kind)).
			Dur("latency", elapsed).
			Err(err).
			Msg("provider call failed")
		return "", err
	}
	return text, nil
}
