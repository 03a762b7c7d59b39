package symbolic

import "github.com/Dumbo-programmer/Calcora-sub000/internal/provider"

// Provider adapts this package to the engine's expression-provider
// contract. It is stateless and safe for concurrent use.
type Provider struct{}

var _ provider.Provider = Provider{}

// Parse parses text into an expression tree. Errors carry the input and
// byte position and satisfy provider.IsParseError.
func (Provider) Parse(text string) (provider.Expr, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Render produces the canonical textual form of an expression produced
// by Parse. Rendering a parse of the output yields the same string.
func (Provider) Render(expr provider.Expr) string {
	e, ok := expr.(Expr)
	if !ok {
		return ""
	}
	return Render(e)
}
