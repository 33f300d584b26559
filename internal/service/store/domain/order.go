// internal/service/store/domain/order.go
package domain

import (
	"errors"
	"time"
)

// Order 是订单聚合的根实体。
// 它只在结账提交成功后持久化；被拒绝的购物车不会留下订单记录。
type Order struct {
	ID        string
	UserID    string
	Lines     []CartLine
	State     State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 创建一个处于初始状态的订单实例。
func NewOrder(id, userID string, lines []CartLine) (*Order, error) {
	if id == "" {
		return nil, errors.New("order id must not be empty")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	now := time.Now()
	return &Order{
		ID:        id,
		UserID:    userID,
		Lines:     lines,
		State:     StateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// BeginValidation 进入库存校验阶段。
func (o *Order) BeginValidation() error {
	if o.State != StateReceived {
		return errors.New("validation can only start from received state")
	}
	o.transition(StateValidating)
	return nil
}

// MarkRejected 记录校验失败，终态。
func (o *Order) MarkRejected() {
	o.transition(StateRejected)
}

// BeginCommit 进入库存扣减阶段，只允许从校验阶段进入。
func (o *Order) BeginCommit() error {
	if o.State != StateValidating {
		return errors.New("commit can only start after validation")
	}
	o.transition(StateCommitting)
	return nil
}

// MarkCommitted 记录提交成功，终态。
func (o *Order) MarkCommitted() error {
	if o.State != StateCommitting {
		return errors.New("only a committing order can be marked committed")
	}
	o.transition(StateCommitted)
	return nil
}

func (o *Order) transition(s State) {
	o.State = s
	o.UpdatedAt = time.Now()
}
