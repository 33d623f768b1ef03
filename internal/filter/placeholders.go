package filter

// Param is a test argument whose value is supplied when the translated
// query is executed.
type Param struct {
	Name string
}

// Expr is a test argument that is a value expression, for example another
// property of the same record.
type Expr struct {
	Expr string
}
