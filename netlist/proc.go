package netlist

import "github.com/sarchlab/velab/pform"

// NetProc is the closed sum of procedural (behavioral) tree node variants
// (spec §3.2). Unlike Node, a NetProc is not itself a link-graph participant
// — it is the control-flow skeleton that the assign-family nodes below hang
// off of.
type NetProc interface {
	isNetProc()
}

// BlockKind distinguishes begin/end (sequential) from fork/join (parallel)
// blocks once lowered.
type BlockKind int

const (
	Sequ BlockKind = iota
	Para
)

// NetBlock is a sequence (Sequ) or parallel group (Para) of sub-statements.
type NetBlock struct {
	Kind  BlockKind
	Scope *NetScope // non-nil for a named begin/end or fork/join
	Stmts []NetProc
}

func (NetBlock) isNetProc() {}

// NetCondit is a lowered if/else (spec §4.6). Elsep is nil if there was no
// else-clause, or if it was discarded because the whole conditional folded
// to a constant (spec §9 design note, SPEC_FULL.md §D.4).
type NetCondit struct {
	Cond  NetExpr
	Ifp   NetProc
	Elsep NetProc
}

func (NetCondit) isNetProc() {}

// CaseArm is one lowered case arm; a nil Guard marks the default arm.
type CaseArm struct {
	Guard NetExpr
	Stmt  NetProc
}

// NetCase is a lowered case/casex/casez (spec §4.6).
type NetCase struct {
	Kind      pform.CaseKind
	Scrutinee NetExpr
	Arms      []CaseArm
}

func (NetCase) isNetProc() {}

// NetWhile is a lowered while loop.
type NetWhile struct {
	Cond NetExpr
	Body NetProc
}

func (NetWhile) isNetProc() {}

// NetRepeat is a lowered repeat loop. Constant counts of 0 and 1 are
// simplified away at lowering time (spec §4.6); Count holds any other
// constant or a non-constant expression.
type NetRepeat struct {
	Count NetExpr
	Body  NetProc
}

func (NetRepeat) isNetProc() {}

// NetForever is a lowered forever loop.
type NetForever struct {
	Body NetProc
}

func (NetForever) isNetProc() {}

// NetPDelay is a lowered `#delay body` (spec §4.6: the delay expression must
// be constant; Ticks is the folded value).
type NetPDelay struct {
	Ticks int64
	Body  NetProc
}

func (NetPDelay) isNetProc() {}

// EventSource is one lowered `@(...)` list entry: which net to watch and on
// what edge kind (spec §4.6 "for ANYEDGE, connect all bits, otherwise only
// bit 0").
type EventSource struct {
	Kind EventKind
	Net  *NetNet
}

// EventKind mirrors pform.EventKind on the netlist side.
type EventKind = pform.EventKind

// NetPEvent wraps Body to fire on any of Sources (spec §4.6). Body may be
// nil for an empty `@(...)  ;` statement.
type NetPEvent struct {
	Sources []EventSource
	Body    NetProc
}

func (NetPEvent) isNetProc() {}

// NetUTask is a user task enable (spec §4.6 PCallTask, non-system case).
type NetUTask struct {
	Def *TaskDef
}

func (NetUTask) isNetProc() {}

// NetSTask is a system task enable (name starts with "$"); arguments are
// lowered expressions, no port matching is performed (spec §4.6).
type NetSTask struct {
	Name string
	Args []NetExpr
}

func (NetSTask) isNetProc() {}

// NetAssign is a blocking procedural assign to a register bit range,
// optionally with a non-constant bit-select (Mux != nil, spec §4.6
// elaborate_lval).
type NetAssign struct {
	NodeBase
	LVal     *NetNet
	MSB, LSB int
	Mux      NetExpr // non-nil: single non-constant bit-select index
	RVal     NetExpr
	Width    int
}

func (NetAssign) isNode()    {}
func (NetAssign) isNetProc() {}

// NetAssignNB is the nonblocking counterpart; delays live on the node itself
// rather than being rewritten away (spec §4.6).
type NetAssignNB struct {
	NodeBase
	LVal       *NetNet
	MSB, LSB   int
	Mux        NetExpr
	RVal       NetExpr
	Width      int
	DelayTicks int64
	HasDelay   bool
}

func (NetAssignNB) isNode()    {}
func (NetAssignNB) isNetProc() {}

// NetAssignMem is a blocking assign to one memory word (spec §4.6). Also
// used for the nonblocking-to-memory quirk (SPEC_FULL.md §D.5): when that
// quirk fires, a NetAssignMem is produced in place of the (never
// implemented) true nonblocking form, alongside a diagnostic.
type NetAssignMem struct {
	NodeBase
	Mem   *NetMemory
	Index NetExpr
	RVal  NetExpr
}

func (NetAssignMem) isNode()    {}
func (NetAssignMem) isNetProc() {}

// NetAssignMemNB exists for completeness of the spec's node taxonomy
// (§3.2 lists it explicitly) but is never constructed by the statement
// elaborator: SPEC_FULL.md §D.5 preserves the original's behavior of
// reporting an error and falling back to NetAssignMem instead.
type NetAssignMemNB struct {
	NodeBase
	Mem   *NetMemory
	Index NetExpr
	RVal  NetExpr
}

func (NetAssignMemNB) isNode()    {}
func (NetAssignMemNB) isNetProc() {}
