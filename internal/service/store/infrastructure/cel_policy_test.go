// internal/service/store/infrastructure/cel_policy_test.go
package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paddock/internal/service/store/domain"
)

func TestNewCELPurchasePolicy_RejectsBadExpressions(t *testing.T) {
	_, err := NewCELPurchasePolicy([]string{"total_quantity <="})
	require.Error(t, err)

	// 语法合法但不是 bool 的表达式也在启动期拒绝
	_, err = NewCELPurchasePolicy([]string{"total_quantity + 1"})
	require.Error(t, err)
}

func TestCELPurchasePolicy_Authorize(t *testing.T) {
	policy, err := NewCELPurchasePolicy([]string{
		"total_quantity <= 100",
		"lines.all(l, l.quantity <= 20)",
		"line_count <= 10",
	})
	require.NoError(t, err)

	t.Run("规则内的购物车放行", func(t *testing.T) {
		err := policy.Authorize(context.Background(), []domain.CartLine{
			{ProductID: "A", Quantity: 20},
			{ProductID: "B", Quantity: 10},
		})
		assert.NoError(t, err)
	})

	t.Run("总量超限被拒", func(t *testing.T) {
		err := policy.Authorize(context.Background(), []domain.CartLine{
			{ProductID: "A", Quantity: 20},
			{ProductID: "B", Quantity: 20},
			{ProductID: "C", Quantity: 20},
			{ProductID: "D", Quantity: 20},
			{ProductID: "E", Quantity: 20},
			{ProductID: "F", Quantity: 20},
		})
		require.ErrorIs(t, err, domain.ErrPolicyViolation)
		assert.True(t, domain.IsInvalidRequest(err))
	})

	t.Run("单行超限被拒", func(t *testing.T) {
		err := policy.Authorize(context.Background(), []domain.CartLine{
			{ProductID: "A", Quantity: 21},
		})
		require.ErrorIs(t, err, domain.ErrPolicyViolation)
	})
}

func TestCELPurchasePolicy_NoRulesAllowsEverything(t *testing.T) {
	policy, err := NewCELPurchasePolicy(nil)
	require.NoError(t, err)
	assert.NoError(t, policy.Authorize(context.Background(), []domain.CartLine{
		{ProductID: "A", Quantity: 9999},
	}))
}
