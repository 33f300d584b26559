// internal/service/store/domain/port/policy.go
package port

import (
	"context"

	"paddock/internal/service/store/domain"
)

// PurchasePolicy 在访问库存之前对整份购物车做准入检查。
// 违反策略属于请求级拒绝，实现应返回包装了 domain.ErrPolicyViolation 的错误。
type PurchasePolicy interface {
	Authorize(ctx context.Context, lines []domain.CartLine) error
}
