// internal/service/store/infrastructure/cel_policy.go
package infrastructure

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"paddock/internal/service/store/domain"
)

// CELPurchasePolicy 是 port.PurchasePolicy 的 CEL 实现。
// 购物车准入规则以表达式形式放在配置里，运营调整限购时不需要改代码。
// 每条表达式必须求值为 bool，全部为 true 才放行。
//
// 表达式可用的变量:
//
//	lines          - [{product_id: string, quantity: int}]
//	line_count     - 行数
//	total_quantity - 所有行数量之和
type CELPurchasePolicy struct {
	rules []compiledRule
}

type compiledRule struct {
	expr    string
	program cel.Program
}

// NewCELPurchasePolicy 编译一组策略表达式。表达式语法错误在启动期暴露。
func NewCELPurchasePolicy(expressions []string) (*CELPurchasePolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("lines", cel.ListType(cel.MapType(cel.StringType, cel.DynType))),
		cel.Variable("line_count", cel.IntType),
		cel.Variable("total_quantity", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cel environment: %w", err)
	}

	policy := &CELPurchasePolicy{}
	for _, expr := range expressions {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("invalid policy expression %q: %w", expr, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("policy expression %q must evaluate to bool, got %s", expr, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to build program for %q: %w", expr, err)
		}
		policy.rules = append(policy.rules, compiledRule{expr: expr, program: program})
	}
	return policy, nil
}

// Authorize 对整份购物车求值所有规则。
func (p *CELPurchasePolicy) Authorize(_ context.Context, lines []domain.CartLine) error {
	activation := buildActivation(lines)
	for _, rule := range p.rules {
		out, _, err := rule.program.Eval(activation)
		if err != nil {
			return fmt.Errorf("policy evaluation failed for %q: %w", rule.expr, err)
		}
		allowed, ok := out.Value().(bool)
		if !ok {
			return fmt.Errorf("policy %q returned non-bool value %v", rule.expr, out.Value())
		}
		if !allowed {
			return errors.Wrapf(domain.ErrPolicyViolation, "rule %q", rule.expr)
		}
	}
	return nil
}

func buildActivation(lines []domain.CartLine) map[string]interface{} {
	total := 0
	factLines := make([]map[string]interface{}, 0, len(lines))
	for _, line := range lines {
		total += line.Quantity
		factLines = append(factLines, map[string]interface{}{
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
		})
	}
	return map[string]interface{}{
		"lines":          factLines,
		"line_count":     len(lines),
		"total_quantity": total,
	}
}
