// internal/service/store/domain/cart_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLines(t *testing.T) {
	t.Run("空购物车", func(t *testing.T) {
		_, err := NormalizeLines(nil)
		require.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("空商品ID", func(t *testing.T) {
		_, err := NormalizeLines([]CartLine{{ProductID: "", Quantity: 1}})
		require.ErrorIs(t, err, ErrInvalidProductID)
	})

	t.Run("非正数量", func(t *testing.T) {
		for _, qty := range []int{0, -3} {
			_, err := NormalizeLines([]CartLine{{ProductID: "A", Quantity: qty}})
			require.ErrorIs(t, err, ErrInvalidQuantity)
		}
	})

	t.Run("重复行合并并保序", func(t *testing.T) {
		lines, err := NormalizeLines([]CartLine{
			{ProductID: "A", Quantity: 2},
			{ProductID: "B", Quantity: 1},
			{ProductID: "A", Quantity: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, []CartLine{
			{ProductID: "A", Quantity: 5},
			{ProductID: "B", Quantity: 1},
		}, lines)
	})

	t.Run("合并前任一行非法都整体拒绝", func(t *testing.T) {
		_, err := NormalizeLines([]CartLine{
			{ProductID: "A", Quantity: 2},
			{ProductID: "B", Quantity: 0},
		})
		require.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestIsInvalidRequest(t *testing.T) {
	assert.True(t, IsInvalidRequest(ErrEmptyCart))
	assert.True(t, IsInvalidRequest(ErrInvalidQuantity))
	assert.True(t, IsInvalidRequest(ErrInvalidProductID))
	assert.True(t, IsInvalidRequest(ErrPolicyViolation))
	assert.False(t, IsInvalidRequest(ErrProductNotFound))
	assert.False(t, IsInvalidRequest(ErrInsufficientStock))
}
