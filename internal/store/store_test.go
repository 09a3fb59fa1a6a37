package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"trade-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTx records calls and never fails.
type recordingTx struct {
	calls []string
}

func (r *recordingTx) Get(_ context.Context, c, id string, _ any) error {
	r.calls = append(r.calls, "get "+c+"/"+id)
	return nil
}

func (r *recordingTx) Query(_ context.Context, c string, _ store.Query, _ any) error {
	r.calls = append(r.calls, "query "+c)
	return nil
}

func (r *recordingTx) Set(_ context.Context, c, id string, _ any) error {
	r.calls = append(r.calls, "set "+c+"/"+id)
	return nil
}

func (r *recordingTx) Increment(_ context.Context, c, id, f string, d int64) error {
	r.calls = append(r.calls, fmt.Sprintf("inc %s/%s %s %d", c, id, f, d))
	return nil
}

func (r *recordingTx) Delete(_ context.Context, c, id string) error {
	r.calls = append(r.calls, "delete "+c+"/"+id)
	return nil
}

func TestGuard_RejectsReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	inner := &recordingTx{}
	tx := store.Guard(inner)

	require.NoError(t, tx.Get(ctx, "sales", "s1", nil))
	require.NoError(t, tx.Query(ctx, "saleItems", store.Where("saleId", "s1"), nil))
	require.NoError(t, tx.Increment(ctx, "supplierProducts", "sp1", "stock", -2))

	err := tx.Get(ctx, "sales", "s2", nil)
	assert.ErrorIs(t, err, store.ErrReadAfterWrite)
	err = tx.Query(ctx, "sales", store.Query{}, nil)
	assert.ErrorIs(t, err, store.ErrReadAfterWrite)

	require.NoError(t, tx.Set(ctx, "sales", "s1", nil))
	require.NoError(t, tx.Delete(ctx, "saleItems", "i1"))

	assert.Equal(t, []string{
		"get sales/s1",
		"query saleItems",
		"inc supplierProducts/sp1 stock -2",
		"set sales/s1",
		"delete saleItems/i1",
	}, inner.calls)
}

func TestQuery_And(t *testing.T) {
	base := store.Where("status", "Unpaid")
	q := base.And("customerId", "c1")

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, []store.Filter{{Field: "status", Value: "Unpaid"}, {Field: "customerId", Value: "c1"}}, q.Filters)
	assert.Equal(t, map[string]string{"status": "Unpaid", "customerId": "c1"}, store.FilterDocument(q.Filters))
}

func TestDecodeAll(t *testing.T) {
	type doc struct {
		ID    string `json:"id"`
		Stock int64  `json:"stock"`
	}
	var out []doc
	err := store.DecodeAll([][]byte{[]byte(`{"id":"a","stock":3}`), []byte(`{"id":"b","stock":0}`)}, &out)
	require.NoError(t, err)
	assert.Equal(t, []doc{{"a", 3}, {"b", 0}}, out)

	out = nil
	require.NoError(t, store.DecodeAll(nil, &out))
	assert.Empty(t, out)
}

// flakyStore fails the first n transactions with the given error.
type flakyStore struct {
	store.Store
	failures int
	err      error
	runs     int
}

func (f *flakyStore) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	f.runs++
	if f.runs <= f.failures {
		return f.err
	}
	return fn(ctx, store.Guard(&recordingTx{}))
}

func fastPolicy(attempts int) store.RetryPolicy {
	return store.RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestRunWithRetry(t *testing.T) {
	conflict := fmt.Errorf("commit: %w", store.ErrConflict)
	boom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantRuns  int
		wantErrIs error
	}{
		{"succeeds first time", 0, nil, 5, 1, nil},
		{"recovers after conflicts", 3, conflict, 5, 4, nil},
		{"gives up after max attempts", 10, conflict, 5, 5, store.ErrConflict},
		{"does not retry other errors", 10, boom, 5, 1, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &flakyStore{failures: tt.failures, err: tt.err}
			var notified []int
			p := fastPolicy(tt.attempts)
			p.OnConflict = func(attempt int, _ error) { notified = append(notified, attempt) }

			err := store.RunWithRetry(context.Background(), s, p, func(ctx context.Context, tx store.Tx) error {
				return nil
			})

			assert.Equal(t, tt.wantRuns, s.runs)
			if tt.wantErrIs == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			if tt.err == conflict {
				assert.Len(t, notified, min(tt.failures, tt.attempts-1))
			}
		})
	}
}

func TestRunWithRetry_FunctionErrorIsReturnedUnchanged(t *testing.T) {
	s := &flakyStore{}
	want := errors.New("insufficient stock")
	err := store.RunWithRetry(context.Background(), s, fastPolicy(3), func(context.Context, store.Tx) error {
		return want
	})
	assert.Same(t, want, err)
	assert.Equal(t, 1, s.runs)
}
