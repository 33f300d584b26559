// internal/service/store/domain/errors.go
package domain

import "errors"

// 请求级错误: 在访问任何库存之前就拒绝整个调用
var (
	ErrEmptyCart        = errors.New("checkout requires at least one cart line")
	ErrInvalidQuantity  = errors.New("requested quantity must be a positive number")
	ErrInvalidProductID = errors.New("product id must not be empty")
	ErrPolicyViolation  = errors.New("cart violates purchase policy")
)

// 行级错误: 作为行失败收集，不会中断对其余行的校验
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
)

// ErrOrderNotFound 查询不存在的订单时返回。
var ErrOrderNotFound = errors.New("order not found")

// IsInvalidRequest 判断一个错误是否属于请求级拒绝。
// 这类错误与库存无关，调用方应返回 400 而非业务失败清单。
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrPolicyViolation)
}
