// Package rules evaluates configurable posting guard expressions.
//
// Guards are CEL expressions compiled once at startup. They see the
// consolidated line about to be posted and must evaluate to true for
// the posting to proceed. The stock ledger's hard invariants are not
// expressed here; guards add site-specific policy on top, e.g.
// requiring a reason on negative adjustments.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"kardex/internal/core/apperror"
)

// Input is the evaluation context of one guard check.
type Input struct {
	// Delta is the signed line quantity as a float. CEL has no
	// fixed-point type; guards compare magnitudes, they do not do
	// ledger arithmetic.
	Delta float64

	// Reason is the document-level reason text.
	Reason string

	// ItemCode is the consolidated line's item code.
	ItemCode string

	// Warehouse is the target warehouse name.
	Warehouse string

	// Actor is who is posting.
	Actor string
}

// Guard is one compiled posting rule. A nil Guard allows everything.
type Guard struct {
	expr string
	prg  cel.Program
}

// CompileGuard compiles a CEL expression into a Guard.
// An empty expression yields a nil guard, which always allows.
func CompileGuard(expr string) (*Guard, error) {
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("delta", cel.DoubleType),
		cel.Variable("reason", cel.StringType),
		cel.Variable("item", cel.StringType),
		cel.Variable("warehouse", cel.StringType),
		cel.Variable("actor", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create rule env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build rule program: %w", err)
	}

	return &Guard{expr: expr, prg: prg}, nil
}

// Allow evaluates the guard for one line.
func (g *Guard) Allow(in Input) (bool, error) {
	if g == nil {
		return true, nil
	}

	out, _, err := g.prg.Eval(map[string]any{
		"delta":     in.Delta,
		"reason":    in.Reason,
		"item":      in.ItemCode,
		"warehouse": in.Warehouse,
		"actor":     in.Actor,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate rule %q: %w", g.expr, err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q returned non-bool %v", g.expr, out.Value())
	}
	return allowed, nil
}

// Check evaluates the guard and converts a denial into a validation
// error naming the offending line.
func (g *Guard) Check(in Input) error {
	allowed, err := g.Allow(in)
	if err != nil {
		return err
	}
	if !allowed {
		return apperror.NewValidation("posting rule rejected the document").
			WithDetail("item_code", in.ItemCode).
			WithDetail("rule", g.expr)
	}
	return nil
}
