// internal/service/store/infrastructure/redis_stock_store_test.go
package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paddock/internal/service/store/domain"
)

// fakeScriptRunner 按脚本名返回预设结果，并记录调用参数。
type fakeScriptRunner struct {
	results map[string]interface{}
	err     error
	keys    []string
	args    []interface{}
}

func (f *fakeScriptRunner) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error) {
	f.keys = keys
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return f.results[name], nil
}

func TestRedisStockStore_DecrementIfAvailable(t *testing.T) {
	t.Run("扣减成功返回新余量", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{decrementScriptName: int64(7)}}
		store := &RedisStockStore{client: runner}

		ok, err := store.DecrementIfAvailable(context.Background(), "p1", 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"stock:{p1}"}, runner.keys)
		assert.Equal(t, []interface{}{3}, runner.args)
	})

	t.Run("余量不足返回 false 且无错误", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{decrementScriptName: int64(codeInsufficient)}}
		store := &RedisStockStore{client: runner}

		ok, err := store.DecrementIfAvailable(context.Background(), "p1", 3)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("商品不存在", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{decrementScriptName: int64(codeNotFound)}}
		store := &RedisStockStore{client: runner}

		ok, err := store.DecrementIfAvailable(context.Background(), "p1", 3)
		require.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.False(t, ok)
	})

	t.Run("扣减到零也算成功", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{decrementScriptName: int64(0)}}
		store := &RedisStockStore{client: runner}

		ok, err := store.DecrementIfAvailable(context.Background(), "p1", 5)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("意外的返回类型", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{decrementScriptName: "oops"}}
		store := &RedisStockStore{client: runner}

		_, err := store.DecrementIfAvailable(context.Background(), "p1", 1)
		require.Error(t, err)
	})
}

func TestRedisStockStore_Restore(t *testing.T) {
	t.Run("回加成功", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{restoreScriptName: int64(10)}}
		store := &RedisStockStore{client: runner}

		require.NoError(t, store.Restore(context.Background(), "p1", 3))
		assert.Equal(t, []string{"stock:{p1}"}, runner.keys)
	})

	t.Run("商品不存在", func(t *testing.T) {
		runner := &fakeScriptRunner{results: map[string]interface{}{restoreScriptName: int64(codeNotFound)}}
		store := &RedisStockStore{client: runner}

		err := store.Restore(context.Background(), "p1", 3)
		require.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}
