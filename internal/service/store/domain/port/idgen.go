// internal/service/store/domain/port/idgen.go
package port

// IDGenerator 负责生成抗碰撞的唯一订单号。
// 生成算法与结账编排解耦，由基础设施层实现。
type IDGenerator interface {
	NewID() string
}
