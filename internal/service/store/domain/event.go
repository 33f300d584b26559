// internal/service/store/domain/event.go
package domain

import "time"

// OrderPlaced 在结账提交成功后发布，供通知、履约等下游消费。
type OrderPlaced struct {
	OrderID  string     `json:"orderId"`
	UserID   string     `json:"userId,omitempty"`
	Lines    []CartLine `json:"lines"`
	PlacedAt time.Time  `json:"placedAt"`
	TraceID  string     `json:"traceId,omitempty"`
}
