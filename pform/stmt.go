package pform

// Statement is the closed sum of parse-tree statement variants (spec §3.1).
type Statement interface {
	isStatement()
	Position() Pos
}

type stmtBase struct{ Pos Pos }

func (s stmtBase) Position() Pos { return s.Pos }

// SAssign is a blocking procedural assign. Delay/Events carry an attached
// `#delay` or `@(...)` control, mutually exclusive, both nil if none (spec
// §4.6: these get rewritten into a sequential block during elaboration).
type SAssign struct {
	stmtBase
	LVal, RVal Expr
	Delay      Expr
	Events     []Expr
}

func (SAssign) isStatement() {}

// SAssignNB is a nonblocking procedural assign. Unlike SAssign, delays are
// not rewritten — they are carried on the emitted node directly.
type SAssignNB struct {
	stmtBase
	LVal, RVal Expr
	Delay      Expr
	Events     []Expr
}

func (SAssignNB) isStatement() {}

// SBlock is a `begin...end` (Parallel=false) or `fork...join` (Parallel=true)
// block. Name is "" for an unnamed block.
type SBlock struct {
	stmtBase
	Name     string
	Parallel bool
	Stmts    []Statement
}

func (SBlock) isStatement() {}

// CaseKind distinguishes case/casex/casez (all share the same elaboration
// shape; the distinction affects only constant-comparison wildcarding,
// which belongs to the constant evaluator, not the tree shape).
type CaseKind int

const (
	CaseNormal CaseKind = iota
	CaseX
	CaseZ
)

// CaseItem is one arm of a case statement. A nil/empty Guards slice marks
// the default arm.
type CaseItem struct {
	Guards []Expr
	Stmt   Statement
}

// SCase is a case/casex/casez statement.
type SCase struct {
	stmtBase
	Kind      CaseKind
	Scrutinee Expr
	Items     []CaseItem
}

func (SCase) isStatement() {}

// SCondit is an if/else statement. Else is nil if there is no else-clause.
type SCondit struct {
	stmtBase
	Cond Expr
	Then Statement
	Else Statement
}

func (SCondit) isStatement() {}

// SDelay is a standalone `#delay stmt;`.
type SDelay struct {
	stmtBase
	Delay Expr
	Stmt  Statement
}

func (SDelay) isStatement() {}

// SEventStatement is a standalone `@(event-list) stmt;`. Stmt may be nil
// for an empty body.
type SEventStatement struct {
	stmtBase
	Events []Expr
	Stmt   Statement
}

func (SEventStatement) isStatement() {}

// SForever is a `forever stmt;` loop.
type SForever struct {
	stmtBase
	Stmt Statement
}

func (SForever) isStatement() {}

// SFor is a `for (init; cond; step) body`. Init and Step must be
// identifier-targeted assigns, enforced by the parser that builds this tree.
type SFor struct {
	stmtBase
	Init Statement
	Cond Expr
	Step Statement
	Body Statement
}

func (SFor) isStatement() {}

// SRepeat is a `repeat (count) stmt;` loop.
type SRepeat struct {
	stmtBase
	Count Expr
	Stmt  Statement
}

func (SRepeat) isStatement() {}

// SWhile is a `while (cond) stmt;` loop.
type SWhile struct {
	stmtBase
	Cond Expr
	Stmt Statement
}

func (SWhile) isStatement() {}

// SCallTask is a task-enable statement. A Name beginning with "$" denotes a
// system task (no port matching is performed for those).
type SCallTask struct {
	stmtBase
	Name string
	Args []Expr
}

func (SCallTask) isStatement() {}
