package sat

// Assignment is the read-only view of the search state offered to a Brancher.
type Assignment interface {
	Value(v Var) Value
	LitValue(l Lit) Value
	Trail() []Lit
	Epoch() int
	NumVars() int
}

// Brancher chooses decisions. Next returns an unassigned literal to assign, or false
// to let the solver decide the remaining variables false in index order.
type Brancher interface {
	Next(a Assignment) (Lit, bool)
}

// BrancherFunc adapts a function to the Brancher interface.
type BrancherFunc func(a Assignment) (Lit, bool)

// Next implements Brancher.
func (f BrancherFunc) Next(a Assignment) (Lit, bool) { return f(a) }
