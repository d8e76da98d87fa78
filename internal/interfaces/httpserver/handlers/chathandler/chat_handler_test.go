package chathandler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/domain/llm"
	"multichat/internal/utils/platformerrors"
)

func TestGatewayFailure(t *testing.T) {
	tests := []struct {
		kind     llm.ErrorKind
		wantType platformerrors.ErrorType
	}{
		{llm.KindInvalidRequest, platformerrors.ErrorTypeValidation},
		{llm.KindUnsupportedModel, platformerrors.ErrorTypeValidation},
		{llm.KindMissingCredential, platformerrors.ErrorTypeUnavailable},
		{llm.KindProviderError, platformerrors.ErrorTypeExternal},
		{llm.KindMalformedResponse, platformerrors.ErrorTypeExternal},
		{llm.KindTransport, platformerrors.ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			gwErr := &llm.GatewayError{Kind: tt.kind, Model: "gpt-4", Message: "gateway says no"}
			err := gatewayFailure(context.Background(), gwErr)

			platformErr := platformerrors.GetPlatformError(err)
			require.NotNil(t, platformErr)
			assert.Equal(t, tt.wantType, platformErr.Type)
			assert.Equal(t, "gateway says no", platformErr.Message)
			assert.Equal(t, string(tt.kind), platformErr.Context["gateway_error_kind"])

			var unwrapped *llm.GatewayError
			assert.True(t, errors.As(err, &unwrapped))
		})
	}
}

func TestGatewayFailure_UnknownError(t *testing.T) {
	err := gatewayFailure(context.Background(), errors.New("boom"))
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))
}
