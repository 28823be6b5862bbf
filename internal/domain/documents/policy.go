package documents

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
)

// Built-in confirmation rules per kind. A tenant can override any of
// them through Settings.PolicyRules; an override that fails to compile
// falls back to the built-in rule.
var defaultPolicyRules = map[Kind]string{
	KindPurchaseOrder:     `line_count > 0 && total > 0.0 && has_counterparty`,
	KindSalesInvoice:      `line_count > 0 && total > 0.0 && has_counterparty`,
	KindStockAdjustment:   `line_count > 0`,
	KindPhysicalInventory: `line_count > 0`,
	KindCashReceipt:       `total > 0.0 && has_counterparty`,
}

// PolicyEngine evaluates CEL confirmation rules. Rules see a small fixed
// set of document facts and must come out true for the confirmation to
// proceed. The whole engine sits behind the policy_rules feature flag so
// a bad tenant rule can be switched off without a deploy.
type PolicyEngine struct {
	env   *cel.Env
	flags security.FeatureFlagProvider

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewPolicyEngine builds the CEL environment for confirmation rules.
func NewPolicyEngine(flags security.FeatureFlagProvider) (*PolicyEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("total", cel.DoubleType),
		cel.Variable("line_count", cel.IntType),
		cel.Variable("has_counterparty", cel.BoolType),
		cel.Variable("backdated", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("build policy environment: %w", err)
	}
	return &PolicyEngine{
		env:      env,
		flags:    flags,
		programs: make(map[string]cel.Program),
	}, nil
}

// CheckConfirm evaluates the confirmation rule for the document's kind.
// A false outcome rejects the confirmation with a policy violation.
func (p *PolicyEngine) CheckConfirm(ctx context.Context, doc *Document) error {
	if p == nil {
		return nil
	}
	if p.flags != nil && !p.flags.IsEnabled(ctx, security.FlagPolicyRules) {
		return nil
	}

	expr := p.ruleFor(ctx, doc.Kind)
	if expr == "" {
		return nil
	}

	prog, err := p.program(expr)
	if err != nil {
		// Tenant override failed to compile; fall back to the built-in rule.
		fallback := defaultPolicyRules[doc.Kind]
		if expr == fallback || fallback == "" {
			return apperror.NewInternal(err).WithDetail("rule", expr)
		}
		expr = fallback
		if prog, err = p.program(expr); err != nil {
			return apperror.NewInternal(err).WithDetail("rule", expr)
		}
	}

	total, _ := doc.Total.Float64()
	out, _, err := prog.Eval(map[string]any{
		"kind":             string(doc.Kind),
		"total":            total,
		"line_count":       len(doc.Lines),
		"has_counterparty": !id.IsNil(doc.CounterpartyID),
		"backdated":        doc.IsBackdated(),
	})
	if err != nil {
		return apperror.NewInternal(err).WithDetail("rule", expr)
	}

	if passed, ok := out.Value().(bool); !ok || !passed {
		return apperror.NewBusinessRule(apperror.CodePolicyRule, "confirmation blocked by policy rule").
			WithDetail("kind", string(doc.Kind)).
			WithDetail("rule", expr)
	}
	return nil
}

// ruleFor returns the tenant override or the built-in rule for the kind.
func (p *PolicyEngine) ruleFor(ctx context.Context, kind Kind) string {
	if scope, err := tenant.ScopeFrom(ctx); err == nil {
		if override, ok := scope.Settings.PolicyRules[string(kind)]; ok {
			return override
		}
	}
	return defaultPolicyRules[kind]
}

// program compiles an expression once and caches the result.
func (p *PolicyEngine) program(expr string) (cel.Program, error) {
	p.mu.RLock()
	prog, ok := p.programs[expr]
	p.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile policy rule: %w", issues.Err())
	}
	prog, err := p.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	p.mu.Lock()
	p.programs[expr] = prog
	p.mu.Unlock()
	return prog, nil
}
