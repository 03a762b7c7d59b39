package rules

import "github.com/Dumbo-programmer/Calcora-sub000/internal/registry"

// Builtins returns the built-in rule set in its canonical registration
// order. The order matters: equal-priority rules are consulted in
// registration order, so this sequence is part of the deterministic
// behavior of the engine.
func Builtins() []registry.Rule {
	out := []registry.Rule{
		expandHigherOrderRule(),
		diffConstantRule(),
		diffIdentityRule(),
		constantMultipleRule(),
		sumRule(),
		powerRule(),
	}
	for _, fn := range chainRuleFunctions {
		out = append(out, chainRule(fn))
	}
	// Quotient before product: a product with a variable denominator
	// reads as a quotient, even when the numerator is itself composite.
	out = append(out,
		quotientRule(),
		productRule(),
		simplifyResultRule(),
		fallbackRule(),
		simplifyRule(),
		expandRule(),
	)
	return out
}

// NewRegistry returns a registry loaded with the built-in rules.
func NewRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(Builtins()...)
	return reg
}
