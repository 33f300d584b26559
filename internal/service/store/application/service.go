// internal/service/store/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/metrics"
	"paddock/internal/service/store/domain"
	"paddock/internal/service/store/domain/port"
)

// CheckoutService 负责结账流程的编排:
// 校验全部行 -> 全部可满足才逐行原子扣减 -> 铸造订单号并落库。
// 一次调用要么不改动任何库存，要么让每一行都恰好扣减一次。
type CheckoutService struct {
	inventory port.InventoryReader
	stock     domain.StockStore
	orders    domain.OrderRepository
	ids       port.IDGenerator
	policy    port.PurchasePolicy
	producer  port.OrderEventProducer

	tracer            trace.Tracer
	metrics           *metrics.CheckoutMetrics
	processingTimeout time.Duration
}

// NewCheckoutService 创建结账服务。metrics 可以为 nil（测试场景）。
func NewCheckoutService(
	inventory port.InventoryReader,
	stock domain.StockStore,
	orders domain.OrderRepository,
	ids port.IDGenerator,
	policy port.PurchasePolicy,
	producer port.OrderEventProducer,
	tracer trace.Tracer,
	m *metrics.CheckoutMetrics,
	processingTimeout time.Duration,
) *CheckoutService {
	return &CheckoutService{
		inventory: inventory, stock: stock, orders: orders,
		ids: ids, policy: policy, producer: producer,
		tracer: tracer, metrics: m, processingTimeout: processingTimeout,
	}
}

// lineCheck 记录校验阶段单行的结果，按提交顺序定位。
type lineCheck struct {
	failed  bool
	failure domain.LineFailure
}

// Checkout 执行一次完整的结账调用。
// 返回值约定:
//   - (*CheckoutOutcome, nil): 业务结果，Committed 标识成功或被拒绝；
//   - (nil, err): 请求级错误 (domain.IsInvalidRequest) 或基础设施错误，
//     后者表示"无法处理"，与"订单被拒绝"是两类失败。
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*domain.CheckoutOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "store.Checkout")
	defer span.End()

	if s.processingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.processingTimeout)
		defer cancel()
	}

	started := time.Now()
	outcome, err := s.checkout(ctx, span, req)
	s.observe(outcome, err, time.Since(started))
	return outcome, err
}

func (s *CheckoutService) checkout(ctx context.Context, span trace.Span, req *CheckoutRequest) (*domain.CheckoutOutcome, error) {
	// 1. 请求级校验: 空购物车、非法数量、重复行合并。
	//    任何失败都发生在第一次库存访问之前。
	lines, err := domain.NormalizeLines(req.ToCartLines())
	if err != nil {
		span.SetStatus(codes.Error, "invalid checkout request")
		return nil, err
	}
	if err := s.policy.Authorize(ctx, lines); err != nil {
		span.SetStatus(codes.Error, "purchase policy rejected cart")
		return nil, err
	}

	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	order, err := domain.NewOrder(s.ids.NewID(), req.UserID, lines)
	if err != nil {
		return nil, err
	}
	if err := order.BeginValidation(); err != nil {
		return nil, err
	}

	// 2. 校验阶段: 行与行之间相互独立，并发读取余量。
	//    行失败 (NOT_FOUND / OUT_OF_STOCK) 被收集而不是中断，
	//    基础设施错误则中止整个调用。
	checks := make([]lineCheck, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			available, err := s.inventory.GetStock(gctx, line.ProductID)
			switch {
			case errors.Is(err, domain.ErrProductNotFound):
				checks[i] = lineCheck{failed: true, failure: domain.LineFailure{
					ProductID: line.ProductID,
					Reason:    domain.ReasonNotFound,
				}}
			case err != nil:
				return err
			case available < line.Quantity:
				checks[i] = lineCheck{failed: true, failure: domain.LineFailure{
					ProductID: line.ProductID,
					Reason:    domain.ReasonOutOfStock,
					Available: available,
					Needed:    line.Quantity,
				}}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inventory query failed")
		return nil, err
	}

	var failures []domain.LineFailure
	for _, check := range checks {
		if check.failed {
			failures = append(failures, check.failure)
		}
	}
	if len(failures) > 0 {
		// 全量上报，调用方一次往返就能看到每一行的问题
		order.MarkRejected()
		span.SetAttributes(attribute.Int("cart.failed_lines", len(failures)))
		span.AddEvent("checkout rejected, no stock was changed")
		return domain.RejectedOutcome(failures), nil
	}

	// 3. 提交阶段: 按提交顺序逐行条件扣减。
	if err := order.BeginCommit(); err != nil {
		return nil, err
	}
	outcome, err := s.commit(ctx, span, order, lines)
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// commit 逐行执行条件扣减。并发的其它结账可能在校验之后耗尽某行的库存，
// 此时条件扣减会失败: 该行按 OUT_OF_STOCK 上报，本次调用中已扣减的行
// 全部做补偿性回加，保持"全有或全无"。
func (s *CheckoutService) commit(ctx context.Context, span trace.Span, order *domain.Order, lines []domain.CartLine) (*domain.CheckoutOutcome, error) {
	var committed []domain.CartLine

	for _, line := range lines {
		ok, err := s.stock.DecrementIfAvailable(ctx, line.ProductID, line.Quantity)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock decrement failed")
			s.rollback(ctx, committed)
			return nil, err
		}

		if err != nil || !ok {
			failure := domain.LineFailure{ProductID: line.ProductID, Needed: line.Quantity}
			if errors.Is(err, domain.ErrProductNotFound) {
				failure.Reason = domain.ReasonNotFound
				failure.Needed = 0
			} else {
				failure.Reason = domain.ReasonOutOfStock
				// 尽力读取当前余量用于上报；读不到就按 0 报告
				if available, gerr := s.inventory.GetStock(ctx, line.ProductID); gerr == nil {
					failure.Available = available
				}
			}

			span.AddEvent("late stock conflict detected during commit, rolling back")
			s.rollback(ctx, committed)
			order.MarkRejected()
			return domain.RejectedOutcome([]domain.LineFailure{failure}), nil
		}

		committed = append(committed, line)
	}

	if err := order.MarkCommitted(); err != nil {
		s.rollback(ctx, committed)
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		// 订单落库失败视为基础设施错误，已扣减的库存全部回滚
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		s.rollback(ctx, committed)
		return nil, err
	}

	s.publishOrderPlaced(ctx, span, order)

	span.SetAttributes(attribute.String("order.id", order.ID))
	span.AddEvent("stock decremented for every line, order committed")
	return domain.CommittedOutcome(order.ID), nil
}

// rollback 按与扣减相反的顺序回加库存。
// 补偿失败只能记录，需要人工或对账介入。
func (s *CheckoutService) rollback(ctx context.Context, committed []domain.CartLine) {
	for i := len(committed) - 1; i >= 0; i-- {
		line := committed[i]
		if err := s.stock.Restore(ctx, line.ProductID, line.Quantity); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("CRITICAL: failed to restore stock during rollback")
		}
	}
}

// publishOrderPlaced 向下游广播订单事件。发布失败不回滚已成立的订单。
func (s *CheckoutService) publishOrderPlaced(ctx context.Context, span trace.Span, order *domain.Order) {
	if s.producer == nil {
		return
	}
	event := &domain.OrderPlaced{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Lines:    order.Lines,
		PlacedAt: time.Now(),
		TraceID:  span.SpanContext().TraceID().String(),
	}
	if err := s.producer.ProduceOrderPlaced(ctx, event); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("failed to publish order placed event")
	}
}

// ValidateAdd 是加购前的单行咨询校验，与结账共用失败原因，但不做任何变更。
func (s *CheckoutService) ValidateAdd(ctx context.Context, productID string, quantity int) (*AddValidation, error) {
	ctx, span := s.tracer.Start(ctx, "store.ValidateAdd")
	defer span.End()

	if productID == "" {
		return nil, domain.ErrInvalidProductID
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	available, err := s.inventory.GetStock(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		return &AddValidation{OK: false, Reason: domain.ReasonNotFound}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if available < quantity {
		return &AddValidation{OK: false, Reason: domain.ReasonOutOfStock, Stock: available, Known: true}, nil
	}
	return &AddValidation{OK: true, Stock: available, Known: true}, nil
}

// GetOrder 按订单号查询已成立的订单。
func (s *CheckoutService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "store.GetOrder")
	defer span.End()
	return s.orders.FindByID(ctx, orderID)
}

// observe 记录结账指标，按结果分类。
func (s *CheckoutService) observe(outcome *domain.CheckoutOutcome, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	label := "error"
	switch {
	case err != nil && domain.IsInvalidRequest(err):
		label = "invalid"
	case err != nil:
		label = "error"
	case outcome.Committed:
		label = "committed"
	default:
		label = "rejected"
		for _, f := range outcome.Failures {
			s.metrics.LineFailures.WithLabelValues(string(f.Reason)).Inc()
		}
	}
	s.metrics.Outcomes.WithLabelValues(label).Inc()
	s.metrics.Duration.WithLabelValues(label).Observe(float64(elapsed.Milliseconds()))
}
