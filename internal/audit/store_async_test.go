package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "heritage/pkg/domain"
	dErrors "heritage/pkg/domain-errors"
	"heritage/pkg/testutil"
)

func TestAsyncStore(t *testing.T) {
	ctx := context.Background()
	userID := id.NewUserID()

	testutil.Given(t, "a worker draining the inbox", func(t *testing.T) {
		durable := NewInMemoryStore()
		async := NewAsyncStore(durable, 8)
		worker := NewWorker(durable, async.Inbox())

		workerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() { _ = worker.Run(workerCtx) }()

		require.NoError(t, async.Append(ctx, userID, Entry{Action: ActionVaultOpened, Time: time.Now()}))

		assert.Eventually(t, func() bool {
			entries, err := durable.ListByUser(ctx, userID)
			return err == nil && len(entries) == 1
		}, time.Second, 10*time.Millisecond, "worker must persist the enqueued entry")
	})

	testutil.Given(t, "no consumer on a full inbox", func(t *testing.T) {
		async := NewAsyncStore(NewInMemoryStore(), 1)

		require.NoError(t, async.Append(ctx, userID, Entry{Action: ActionVaultOpened, Time: time.Now()}))
		err := async.Append(ctx, userID, Entry{Action: ActionVaultClosed, Time: time.Now()})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable), "append must fail instead of blocking")
	})

	testutil.Given(t, "reads while appends are in flight", func(t *testing.T) {
		durable := NewInMemoryStore()
		require.NoError(t, durable.Append(ctx, userID, Entry{Action: ActionVaultOpened, Time: time.Now()}))

		async := NewAsyncStore(durable, 8)
		entries, err := async.ListByUser(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "reads delegate to the wrapped store")
	})
}
