// internal/service/store/domain/cart.go
package domain

// CartLine 是一次结账提交中的一行，只在单次调用内存在。
type CartLine struct {
	ProductID string
	Quantity  int
}

// NormalizeLines 校验并规整一份购物车。
// 规则:
//   - 空购物车、非正数量、空商品 ID 都是请求级错误，直接拒绝；
//   - 同一商品出现在多行时合并数量，保留首次出现的顺序。
//
// 合并让提交阶段对每个商品只做一次条件扣减。
func NormalizeLines(lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	merged := make([]CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, seen := index[line.ProductID]; seen {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// FailureReason 标识一行结账失败的原因。
type FailureReason string

const (
	ReasonNotFound   FailureReason = "NOT_FOUND"
	ReasonOutOfStock FailureReason = "OUT_OF_STOCK"
)

// LineFailure 描述一行无法满足的原因。
// Available/Needed 只对 OUT_OF_STOCK 有意义。
type LineFailure struct {
	ProductID string
	Reason    FailureReason
	Available int
	Needed    int
}

// CheckoutOutcome 是一次结账调用的最终结果:
// 要么提交成功并携带订单号，要么携带全部行失败。
type CheckoutOutcome struct {
	Committed bool
	OrderID   string
	Failures  []LineFailure
}

// RejectedOutcome 构造一个失败结果。
func RejectedOutcome(failures []LineFailure) *CheckoutOutcome {
	return &CheckoutOutcome{Committed: false, Failures: failures}
}

// CommittedOutcome 构造一个成功结果。
func CommittedOutcome(orderID string) *CheckoutOutcome {
	return &CheckoutOutcome{Committed: true, OrderID: orderID}
}
