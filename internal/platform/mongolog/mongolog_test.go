package mongolog

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func TestNewRequiresURI(t *testing.T) {
	_, err := New(context.Background(), logger.Nop(), Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAppendAndList(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set TEST_MONGO_URI to run mongo integration tests")
	}
	ctx := context.Background()
	l, err := New(ctx, logger.Nop(), Config{URI: uri, Database: "shopfront_test"})
	require.NoError(t, err)
	defer l.Close(ctx)

	ref := "ORD-" + uuid.NewString()
	require.NoError(t, l.Append(ctx, PaymentEvent{Source: SourceIPN, TxnRef: ref, Amount: 100, ResponseCode: "24", Outcome: "failed"}))
	require.NoError(t, l.Append(ctx, PaymentEvent{Source: SourceReturn, TxnRef: ref, Amount: 100, ResponseCode: "00", Outcome: "succeeded"}))

	events, err := l.ListByTxnRef(ctx, ref, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Timestamp.IsZero())
}
