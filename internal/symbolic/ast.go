// Package symbolic is the built-in Expression Provider: a small
// computer-algebra layer covering elementary expressions, unevaluated
// derivative markers, and the transformations the bundled rule set
// delegates to. It exists so the engine runs end to end without an
// external provider; nothing in the engine or trace layers depends on it
// beyond the provider contract.
package symbolic

// Expr is a node in the expression tree. Trees are treated as immutable:
// every transformation builds new nodes and shares untouched subtrees.
type Expr interface {
	exprNode()
}

// Number is an exact rational constant. D is always positive and N/D is
// always in lowest terms; use NewNumber to maintain that. Exact
// rationals keep every transformation deterministic - there is no
// floating point anywhere in this package.
type Number struct {
	N, D int64
}

// Symbol is a free variable or named constant (x, y, pi).
type Symbol struct {
	Name string
}

// Add is an n-ary sum. Term order is construction order and is
// significant: rendering preserves it, which keeps runs reproducible.
type Add struct {
	Terms []Expr
}

// Mul is an n-ary product. Factor order is construction order.
// Subtraction and division are normalized away at parse time:
// a-b becomes a + (-1)*b and a/b becomes a * b**(-1).
type Mul struct {
	Factors []Expr
}

// Pow is base**exp, right-associative.
type Pow struct {
	Base, Exp Expr
}

// Call is a function application drawn from the known function table.
type Call struct {
	Fn   string
	Args []Expr
}

// Derivative is an unevaluated derivative marker: the provider-level
// representation of "a derivative still to be taken". Rules fire while
// at least one of these remains in the tree.
type Derivative struct {
	Body  Expr
	Var   string
	Order int
}

func (*Number) exprNode()     {}
func (*Symbol) exprNode()     {}
func (*Add) exprNode()        {}
func (*Mul) exprNode()        {}
func (*Pow) exprNode()        {}
func (*Call) exprNode()       {}
func (*Derivative) exprNode() {}

// NewNumber returns n/d in lowest terms with a positive denominator.
// Panics on d == 0; callers guard division by zero at parse time.
func NewNumber(n, d int64) *Number {
	if d == 0 {
		panic("symbolic: zero denominator")
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs64(n), d)
	if g > 1 {
		n /= g
		d /= g
	}
	return &Number{N: n, D: d}
}

// Int returns the integer n as a Number.
func Int(n int64) *Number {
	return &Number{N: n, D: 1}
}

// IsInt reports whether the number is integral.
func (n *Number) IsInt() bool {
	return n.D == 1
}

// IsZero reports n == 0.
func (n *Number) IsZero() bool {
	return n.N == 0
}

// IsOne reports n == 1.
func (n *Number) IsOne() bool {
	return n.N == 1 && n.D == 1
}

// IsZero reports whether e is the number 0.
func IsZero(e Expr) bool {
	n, ok := e.(*Number)
	return ok && n.IsZero()
}

// IsOne reports whether e is the number 1.
func IsOne(e Expr) bool {
	n, ok := e.(*Number)
	return ok && n.IsOne()
}

// addNum returns a+b exactly. The int64 arithmetic here is unchecked:
// operands originate from parsed literals, which parseNumber bounds to
// int64, and from folds of such literals. The one path that grows
// values geometrically, integer exponentiation, is guarded in powNum;
// coefficients outside int64 are out of scope for the simplifier.
func addNum(a, b *Number) *Number {
	return NewNumber(a.N*b.D+b.N*a.D, a.D*b.D)
}

// mulNum returns a*b exactly. Same unchecked-arithmetic bound as
// addNum.
func mulNum(a, b *Number) *Number {
	return NewNumber(a.N*b.N, a.D*b.D)
}

// MulNumbers returns a*b exactly.
func MulNumbers(a, b *Number) *Number {
	return mulNum(a, b)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// knownFunctions is the closed set of function names the parser accepts
// and the differentiator understands.
var knownFunctions = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"sec": true, "csc": true, "cot": true,
	"asin": true, "acos": true, "atan": true,
	"sinh": true, "cosh": true, "tanh": true,
	"exp": true, "log": true, "sqrt": true,
}

// Equal reports structural equality via canonical rendering. Rendering
// is deterministic, so equal strings mean equal trees.
func Equal(a, b Expr) bool {
	return Render(a) == Render(b)
}

// ContainsDerivative reports whether any unevaluated derivative marker
// remains in the tree. Rules use this as their terminal gate.
func ContainsDerivative(e Expr) bool {
	return FirstDerivative(e, func(*Derivative) bool { return true }) != nil
}

// ContainsSymbol reports whether the named symbol occurs in the tree.
func ContainsSymbol(e Expr, name string) bool {
	switch v := e.(type) {
	case *Number:
		return false
	case *Symbol:
		return v.Name == name
	case *Add:
		for _, t := range v.Terms {
			if ContainsSymbol(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.Factors {
			if ContainsSymbol(f, name) {
				return true
			}
		}
	case *Pow:
		return ContainsSymbol(v.Base, name) || ContainsSymbol(v.Exp, name)
	case *Call:
		for _, a := range v.Args {
			if ContainsSymbol(a, name) {
				return true
			}
		}
	case *Derivative:
		return v.Var == name || ContainsSymbol(v.Body, name)
	}
	return false
}
