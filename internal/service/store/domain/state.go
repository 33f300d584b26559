// internal/service/store/domain/state.go
package domain

// State 定义了单次结账调用的生命周期状态。
// REJECTED 和 COMMITTED 是终态，没有重试状态，客户端需重新提交。
type State string

const (
	StateReceived   State = "RECEIVED"   // 已接收，尚未校验
	StateValidating State = "VALIDATING" // 正在逐行校验库存
	StateCommitting State = "COMMITTING" // 校验全部通过，正在扣减库存
	StateCommitted  State = "COMMITTED"  // 扣减完成，订单成立
	StateRejected   State = "REJECTED"   // 存在无法满足的行，未改动任何库存
)
