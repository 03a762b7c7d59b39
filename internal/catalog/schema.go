package catalog

// schemaCUE constrains catalog files. Kept inline so the package is
// self-contained.
const schemaCUE = `
#Override: {
	rule:       string & !=""
	operation?: string & !=""
	priority?:  int
	enabled?:   bool
}

catalog: {
	max_iterations?: int & >0
	overrides?: [...#Override]
}
`
