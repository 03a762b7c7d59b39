package registry

// Def is a declarative rule: a Rule built from plain fields and
// functions, for rule sets defined as static tables.
type Def struct {
	RuleName      string
	RuleOperation string
	RulePriority  int
	RuleDomains   []string

	// Match reports applicability. A nil Match never applies.
	Match func(expr string) bool

	// Rewrite produces the application. Required.
	Rewrite func(expr string) (Application, error)
}

var _ Rule = (*Def)(nil)

func (d *Def) Name() string      { return d.RuleName }
func (d *Def) Operation() string { return d.RuleOperation }
func (d *Def) Priority() int     { return d.RulePriority }
func (d *Def) Domains() []string { return d.RuleDomains }

func (d *Def) Applicable(expr string) bool {
	return d.Match != nil && d.Match(expr)
}

func (d *Def) Apply(expr string) (Application, error) {
	return d.Rewrite(expr)
}
