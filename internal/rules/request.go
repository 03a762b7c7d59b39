package rules

import (
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
)

// MaxOrder bounds the derivative order a request accepts. Each order
// costs a full derivation pass, so unbounded orders would let a single
// request spend the whole iteration budget on marker expansion alone.
const MaxOrder = 10

// DifferentiateRequest builds the engine request for differentiating
// expression with respect to variable, order times. The input is
// validated and wrapped in an unevaluated derivative marker; the rule
// set then unwinds the marker step by step. Order zero means one.
func DifferentiateRequest(expression, variable string, order int) (engine.Request, error) {
	if order <= 0 {
		order = 1
	}
	if order > MaxOrder {
		return engine.Request{}, fmt.Errorf("derivative order %d exceeds the maximum of %d", order, MaxOrder)
	}
	if err := symbolic.CheckVariable(variable); err != nil {
		return engine.Request{}, err
	}
	body, err := symbolic.Parse(expression)
	if err != nil {
		return engine.Request{}, err
	}
	if symbolic.ContainsDerivative(body) {
		return engine.Request{}, &provider.ParseError{
			Input: expression,
			Msg:   "expression must not contain Derivative markers",
		}
	}
	wrapped := &symbolic.Derivative{Body: body, Var: variable, Order: order}
	return engine.Request{
		Operation:  OpDifferentiate,
		Expression: symbolic.Render(wrapped),
		Variable:   variable,
		Order:      order,
	}, nil
}

// SimplifyRequest builds the engine request for simplifying expression.
func SimplifyRequest(expression string) (engine.Request, error) {
	if _, err := symbolic.Parse(expression); err != nil {
		return engine.Request{}, err
	}
	return engine.Request{Operation: OpSimplify, Expression: expression}, nil
}

// ExpandRequest builds the engine request for expanding expression.
func ExpandRequest(expression string) (engine.Request, error) {
	if _, err := symbolic.Parse(expression); err != nil {
		return engine.Request{}, err
	}
	return engine.Request{Operation: OpExpand, Expression: expression}, nil
}
