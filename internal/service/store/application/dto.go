// internal/service/store/application/dto.go
package application

import "paddock/internal/service/store/domain"

// CheckoutRequest 是结账用例的输入数据。
type CheckoutRequest struct {
	UserID string             `json:"userId,omitempty"`
	Items  []CheckoutLineItem `json:"items"`
}

// CheckoutLineItem 是提交中的一行。
type CheckoutLineItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// ToCartLines 把传输层的行转换为领域对象，保留提交顺序。
func (r *CheckoutRequest) ToCartLines() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, domain.CartLine{ProductID: item.ProductID, Quantity: item.Qty})
	}
	return lines
}

// AddValidation 是加购前置校验的结果，纯咨询性质，不产生任何变更。
type AddValidation struct {
	OK     bool
	Reason domain.FailureReason // OK 为 false 时有效
	Stock  int                  // 商品存在时为当前余量
	Known  bool                 // Stock 是否可用 (NOT_FOUND 时为 false)
}
