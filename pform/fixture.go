package pform

import (
	"fmt"
	"os"

	"github.com/sarchlab/velab/verinum"
	"gopkg.in/yaml.v3"
)

// This file is the yaml.v3 fixture format used by tests and by
// `cmd/velab -fixture` to write down a parse tree literally, since the real
// lexer/parser is out of scope (spec §1). The shape mirrors
// core/program.go's YAMLCoreProgram/YAMLOperation split: a flat,
// tag-discriminated wire struct for each node kind, converted to the real
// pform types by a ToXxx method.

// ExprYAML is the wire format for one Expr node. Kind selects which fields
// are meaningful; unused fields are omitted on the way out and ignored on
// the way in.
type ExprYAML struct {
	Kind    string      `yaml:"kind"`
	Value   string      `yaml:"value,omitempty"`
	Name    string      `yaml:"name,omitempty"`
	Bit     *ExprYAML   `yaml:"bit,omitempty"`
	MSB     *ExprYAML   `yaml:"msb,omitempty"`
	LSB     *ExprYAML   `yaml:"lsb,omitempty"`
	Op      string      `yaml:"op,omitempty"`
	Operand *ExprYAML   `yaml:"operand,omitempty"`
	L       *ExprYAML   `yaml:"l,omitempty"`
	R       *ExprYAML   `yaml:"r,omitempty"`
	Cond    *ExprYAML   `yaml:"cond,omitempty"`
	Then    *ExprYAML   `yaml:"then,omitempty"`
	Else    *ExprYAML   `yaml:"else,omitempty"`
	Parts   []*ExprYAML `yaml:"parts,omitempty"`
	Repeat  *ExprYAML   `yaml:"repeat,omitempty"`
	Args    []*ExprYAML `yaml:"args,omitempty"`
	Edge    string      `yaml:"edge,omitempty"`
	Expr    *ExprYAML   `yaml:"expr,omitempty"`
}

// ToExpr converts the wire form to a real Expr, or nil if e is nil.
func (e *ExprYAML) ToExpr(pos Pos) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	base := exprBase{Pos: pos}
	switch e.Kind {
	case "num":
		v, err := verinum.Parse(e.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pos, err)
		}
		return ENumber{exprBase: base, Value: v}, nil
	case "string":
		return EString{exprBase: base, Value: e.Value}, nil
	case "ident":
		bit, err := e.Bit.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		msb, err := e.MSB.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		lsb, err := e.LSB.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return EIdent{exprBase: base, Name: e.Name, Bit: bit, MSB: msb, LSB: lsb}, nil
	case "unary":
		operand, err := e.Operand.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return EUnary{exprBase: base, Op: e.Op, Operand: operand}, nil
	case "binary":
		l, err := e.L.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		r, err := e.R.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return EBinary{exprBase: base, Op: e.Op, L: l, R: r}, nil
	case "ternary":
		cond, err := e.Cond.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		then, err := e.Then.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		els, err := e.Else.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return ETernary{exprBase: base, Cond: cond, Then: then, Else: els}, nil
	case "concat":
		parts := make([]Expr, len(e.Parts))
		for i, p := range e.Parts {
			pe, err := p.ToExpr(pos)
			if err != nil {
				return nil, err
			}
			parts[i] = pe
		}
		rep, err := e.Repeat.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return EConcat{exprBase: base, Parts: parts, Repeat: rep}, nil
	case "call":
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			ae, err := a.ToExpr(pos)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		return EFuncCall{exprBase: base, Name: e.Name, Args: args}, nil
	case "event":
		var kind EventKind
		switch e.Edge {
		case "posedge":
			kind = Posedge
		case "negedge":
			kind = Negedge
		case "anyedge", "":
			kind = Anyedge
		default:
			kind = Level
		}
		inner, err := e.Expr.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return EEvent{exprBase: base, Kind: kind, Expr: inner}, nil
	default:
		return nil, fmt.Errorf("%s: unknown expression kind %q", pos, e.Kind)
	}
}

// StmtYAML is the wire format for one Statement node.
type StmtYAML struct {
	Kind   string      `yaml:"kind"`
	Name   string      `yaml:"name,omitempty"`
	LVal   *ExprYAML   `yaml:"lval,omitempty"`
	RVal   *ExprYAML   `yaml:"rval,omitempty"`
	Delay  *ExprYAML   `yaml:"delay,omitempty"`
	Events []*ExprYAML `yaml:"events,omitempty"`
	Parallel bool      `yaml:"parallel,omitempty"`
	Stmts  []*StmtYAML `yaml:"stmts,omitempty"`
	CaseKind string    `yaml:"casekind,omitempty"`
	Scrutinee *ExprYAML `yaml:"scrutinee,omitempty"`
	Items  []CaseItemYAML `yaml:"items,omitempty"`
	Cond   *ExprYAML   `yaml:"cond,omitempty"`
	Then   *StmtYAML   `yaml:"then,omitempty"`
	Else   *StmtYAML   `yaml:"else,omitempty"`
	Stmt   *StmtYAML   `yaml:"stmt,omitempty"`
	Init   *StmtYAML   `yaml:"init,omitempty"`
	Step   *StmtYAML   `yaml:"step,omitempty"`
	Body   *StmtYAML   `yaml:"body,omitempty"`
	Count  *ExprYAML   `yaml:"count,omitempty"`
	Args   []*ExprYAML `yaml:"args,omitempty"`
}

// CaseItemYAML is one arm of a SCase.
type CaseItemYAML struct {
	Guards []*ExprYAML `yaml:"guards,omitempty"`
	Stmt   *StmtYAML   `yaml:"stmt,omitempty"`
}

// ToStatement converts the wire form to a real Statement, or nil if s is nil.
func (s *StmtYAML) ToStatement(pos Pos) (Statement, error) {
	if s == nil {
		return nil, nil
	}
	base := stmtBase{Pos: pos}
	switch s.Kind {
	case "assign":
		lval, err := s.LVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		rval, err := s.RVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		delay, err := s.Delay.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		events, err := exprList(s.Events, pos)
		if err != nil {
			return nil, err
		}
		return SAssign{stmtBase: base, LVal: lval, RVal: rval, Delay: delay, Events: events}, nil
	case "assignnb":
		lval, err := s.LVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		rval, err := s.RVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		delay, err := s.Delay.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		events, err := exprList(s.Events, pos)
		if err != nil {
			return nil, err
		}
		return SAssignNB{stmtBase: base, LVal: lval, RVal: rval, Delay: delay, Events: events}, nil
	case "block":
		stmts := make([]Statement, len(s.Stmts))
		for i, st := range s.Stmts {
			cs, err := st.ToStatement(pos)
			if err != nil {
				return nil, err
			}
			stmts[i] = cs
		}
		return SBlock{stmtBase: base, Name: s.Name, Parallel: s.Parallel, Stmts: stmts}, nil
	case "case", "casex", "casez":
		k := CaseNormal
		if s.Kind == "casex" {
			k = CaseX
		} else if s.Kind == "casez" {
			k = CaseZ
		}
		scrut, err := s.Scrutinee.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		items := make([]CaseItem, len(s.Items))
		for i, it := range s.Items {
			guards, err := exprList(it.Guards, pos)
			if err != nil {
				return nil, err
			}
			cs, err := it.Stmt.ToStatement(pos)
			if err != nil {
				return nil, err
			}
			items[i] = CaseItem{Guards: guards, Stmt: cs}
		}
		return SCase{stmtBase: base, Kind: k, Scrutinee: scrut, Items: items}, nil
	case "condit":
		cond, err := s.Cond.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		then, err := s.Then.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		els, err := s.Else.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SCondit{stmtBase: base, Cond: cond, Then: then, Else: els}, nil
	case "delay":
		delay, err := s.Delay.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		st, err := s.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SDelay{stmtBase: base, Delay: delay, Stmt: st}, nil
	case "event":
		events, err := exprList(s.Events, pos)
		if err != nil {
			return nil, err
		}
		st, err := s.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SEventStatement{stmtBase: base, Events: events, Stmt: st}, nil
	case "forever":
		st, err := s.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SForever{stmtBase: base, Stmt: st}, nil
	case "for":
		init, err := s.Init.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		cond, err := s.Cond.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		step, err := s.Step.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		body, err := s.Body.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SFor{stmtBase: base, Init: init, Cond: cond, Step: step, Body: body}, nil
	case "repeat":
		count, err := s.Count.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		st, err := s.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SRepeat{stmtBase: base, Count: count, Stmt: st}, nil
	case "while":
		cond, err := s.Cond.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		st, err := s.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		return SWhile{stmtBase: base, Cond: cond, Stmt: st}, nil
	case "calltask":
		args, err := exprList(s.Args, pos)
		if err != nil {
			return nil, err
		}
		return SCallTask{stmtBase: base, Name: s.Name, Args: args}, nil
	default:
		return nil, fmt.Errorf("%s: unknown statement kind %q", pos, s.Kind)
	}
}

func exprList(in []*ExprYAML, pos Pos) ([]Expr, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]Expr, len(in))
	for i, e := range in {
		ce, err := e.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		out[i] = ce
	}
	return out, nil
}

// WireYAML is the wire format for one PWire.
type WireYAML struct {
	Kind       string            `yaml:"kind"`
	Dir        string            `yaml:"dir,omitempty"`
	MSB        *ExprYAML         `yaml:"msb,omitempty"`
	LSB        *ExprYAML         `yaml:"lsb,omitempty"`
	MemLeft    *ExprYAML         `yaml:"memleft,omitempty"`
	MemRight   *ExprYAML         `yaml:"memright,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

func parseWireKind(s string) WireKind {
	switch s {
	case "reg":
		return Reg
	case "implicit_reg":
		return ImplicitReg
	case "integer":
		return Integer
	case "wire":
		return Wire
	default:
		return Implicit
	}
}

func parsePortDir(s string) PortDir {
	switch s {
	case "input":
		return PortInput
	case "output":
		return PortOutput
	case "inout":
		return PortInout
	default:
		return PortNone
	}
}

// ToWire converts the wire form, given its own name, to a real *PWire.
func (w *WireYAML) ToWire(name string, pos Pos) (*PWire, error) {
	msb, err := w.MSB.ToExpr(pos)
	if err != nil {
		return nil, err
	}
	lsb, err := w.LSB.ToExpr(pos)
	if err != nil {
		return nil, err
	}
	pw := &PWire{
		Pos:        pos,
		Name:       name,
		Kind:       parseWireKind(w.Kind),
		Dir:        parsePortDir(w.Dir),
		Attributes: w.Attributes,
	}
	if msb != nil || lsb != nil {
		pw.Ranges = []Range{{MSB: msb, LSB: lsb}}
	}
	if w.MemLeft != nil || w.MemRight != nil {
		l, err := w.MemLeft.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		r, err := w.MemRight.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		pw.MemRange = &Range{MSB: l, LSB: r}
	}
	return pw, nil
}

// GateYAML is the wire format for one Gate.
type GateYAML struct {
	Kind     string            `yaml:"kind"` // "assign", "builtin", "instance"
	LVal     *ExprYAML         `yaml:"lval,omitempty"`
	RVal     *ExprYAML         `yaml:"rval,omitempty"`
	GateType string            `yaml:"gatetype,omitempty"`
	Instance string            `yaml:"instance,omitempty"`
	Target   string            `yaml:"target,omitempty"`
	MSB      *ExprYAML         `yaml:"msb,omitempty"`
	LSB      *ExprYAML         `yaml:"lsb,omitempty"`
	Pins     []*ExprYAML       `yaml:"pins,omitempty"`
	Positional []*ExprYAML     `yaml:"positional,omitempty"`
	Named    map[string]*ExprYAML `yaml:"named,omitempty"`
	Params   []*ExprYAML       `yaml:"params,omitempty"`
	ParamsNamed map[string]*ExprYAML `yaml:"paramsnamed,omitempty"`
}

func parseBuiltinType(s string) BuiltinType {
	switch s {
	case "and":
		return GateAnd
	case "buf":
		return GateBuf
	case "bufif0":
		return GateBufif0
	case "bufif1":
		return GateBufif1
	case "nand":
		return GateNand
	case "nor":
		return GateNor
	case "not":
		return GateNot
	case "or":
		return GateOr
	case "xnor":
		return GateXnor
	default:
		return GateXor
	}
}

// ToGate converts the wire form to a real Gate.
func (g *GateYAML) ToGate(pos Pos) (Gate, error) {
	base := gateBase{Pos: pos}
	var rng *Range
	if g.MSB != nil || g.LSB != nil {
		msb, err := g.MSB.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		lsb, err := g.LSB.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		rng = &Range{MSB: msb, LSB: lsb}
	}
	switch g.Kind {
	case "assign":
		lval, err := g.LVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		rval, err := g.RVal.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		return GateAssign{gateBase: base, LVal: lval, RVal: rval}, nil
	case "builtin":
		pins, err := exprList(g.Pins, pos)
		if err != nil {
			return nil, err
		}
		return GateBuiltin{
			gateBase:     base,
			InstanceName: g.Instance,
			Type:         parseBuiltinType(g.GateType),
			Range:        rng,
			Pins:         pins,
		}, nil
	case "instance":
		var positional []Expr
		var named map[string]Expr
		if g.Positional != nil {
			p, err := exprList(g.Positional, pos)
			if err != nil {
				return nil, err
			}
			positional = p
		}
		if g.Named != nil {
			named = make(map[string]Expr, len(g.Named))
			for k, v := range g.Named {
				ce, err := v.ToExpr(pos)
				if err != nil {
					return nil, err
				}
				named[k] = ce
			}
		}
		var paramsPos []Expr
		var paramsNamed map[string]Expr
		if g.Params != nil {
			p, err := exprList(g.Params, pos)
			if err != nil {
				return nil, err
			}
			paramsPos = p
		}
		if g.ParamsNamed != nil {
			paramsNamed = make(map[string]Expr, len(g.ParamsNamed))
			for k, v := range g.ParamsNamed {
				ce, err := v.ToExpr(pos)
				if err != nil {
					return nil, err
				}
				paramsNamed[k] = ce
			}
		}
		return GateModule{
			gateBase:         base,
			InstanceName:     g.Instance,
			TargetName:       g.Target,
			Range:            rng,
			Positional:       positional,
			Named:            named,
			ParamsPositional: paramsPos,
			ParamsNamed:      paramsNamed,
		}, nil
	default:
		return nil, fmt.Errorf("%s: unknown gate kind %q", pos, g.Kind)
	}
}

// ProcessYAML is the wire format for one Process.
type ProcessYAML struct {
	Kind string    `yaml:"kind"` // "initial" or "always"
	Stmt *StmtYAML `yaml:"stmt"`
}

// ParamYAML is the wire format for one Param.
type ParamYAML struct {
	Name    string    `yaml:"name"`
	Default *ExprYAML `yaml:"default,omitempty"`
}

// ModuleYAML is the top-level fixture format for one module.
type ModuleYAML struct {
	File      string                `yaml:"file,omitempty"`
	Name      string                `yaml:"name"`
	Params    []ParamYAML           `yaml:"params,omitempty"`
	Ports     [][]string            `yaml:"ports,omitempty"`
	Wires     map[string]WireYAML   `yaml:"wires,omitempty"`
	Gates     []GateYAML            `yaml:"gates,omitempty"`
	Processes []ProcessYAML         `yaml:"processes,omitempty"`
	Tasks     map[string]TaskYAML   `yaml:"tasks,omitempty"`
	Functions map[string]FuncYAML   `yaml:"functions,omitempty"`
}

// TaskYAML is the wire format for one user task declaration.
type TaskYAML struct {
	Ports map[string]WireYAML `yaml:"ports,omitempty"`
	// PortOrder lists the port names in declaration order; map iteration
	// order is not stable, and argument binding is strictly positional
	// (spec §4.6 CallTask).
	PortOrder []string  `yaml:"portorder,omitempty"`
	Body      *StmtYAML `yaml:"body"`
}

// FuncYAML is the wire format for one user function declaration.
type FuncYAML struct {
	Return    WireYAML            `yaml:"return"`
	Ports     map[string]WireYAML `yaml:"ports,omitempty"`
	PortOrder []string            `yaml:"portorder,omitempty"`
	Body      *StmtYAML           `yaml:"body"`
}

func orderedPorts(ports map[string]WireYAML, order []string, pos Pos) ([]*PWire, error) {
	names := order
	if len(names) == 0 {
		for n := range ports {
			names = append(names, n)
		}
	}
	out := make([]*PWire, 0, len(names))
	for _, n := range names {
		w, ok := ports[n]
		if !ok {
			return nil, fmt.Errorf("%s: portorder names unknown port %q", pos, n)
		}
		pw, err := w.ToWire(n, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, pw)
	}
	return out, nil
}

// FixtureRoot is the top-level document: one or more modules keyed by name.
type FixtureRoot struct {
	Modules []ModuleYAML `yaml:"modules"`
}

// ToModule converts the wire form to a real *Module.
func (m *ModuleYAML) ToModule() (*Module, error) {
	pos := Pos{File: m.File, Line: 1}
	mod := &Module{
		Pos:       pos,
		Name:      m.Name,
		Wires:     map[string]*PWire{},
		Tasks:     map[string]*Task{},
		Functions: map[string]*Function{},
	}
	for _, p := range m.Params {
		def, err := p.Default.ToExpr(pos)
		if err != nil {
			return nil, err
		}
		mod.Params = append(mod.Params, Param{Pos: pos, Name: p.Name, Default: def})
	}
	for _, names := range m.Ports {
		mod.Ports = append(mod.Ports, Port{Names: names})
	}
	for name, w := range m.Wires {
		pw, err := w.ToWire(name, pos)
		if err != nil {
			return nil, err
		}
		if existing, ok := mod.Wires[name]; ok {
			existing.Ranges = append(existing.Ranges, pw.Ranges...)
			continue
		}
		mod.Wires[name] = pw
	}
	for _, g := range m.Gates {
		cg, err := g.ToGate(pos)
		if err != nil {
			return nil, err
		}
		mod.Gates = append(mod.Gates, cg)
	}
	for _, p := range m.Processes {
		st, err := p.Stmt.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		kind := Initial
		if p.Kind == "always" {
			kind = Always
		}
		mod.Processes = append(mod.Processes, &Process{Pos: pos, Kind: kind, Stmt: st})
	}
	for name, ty := range m.Tasks {
		ports, err := orderedPorts(ty.Ports, ty.PortOrder, pos)
		if err != nil {
			return nil, err
		}
		body, err := ty.Body.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		mod.Tasks[name] = &Task{Pos: pos, Name: name, Ports: ports, Body: body}
	}
	for name, fy := range m.Functions {
		ports, err := orderedPorts(fy.Ports, fy.PortOrder, pos)
		if err != nil {
			return nil, err
		}
		ret, err := fy.Return.ToWire(name, pos)
		if err != nil {
			return nil, err
		}
		body, err := fy.Body.ToStatement(pos)
		if err != nil {
			return nil, err
		}
		mod.Functions[name] = &Function{Pos: pos, Name: name, Return: ret, Ports: ports, Body: body}
	}
	return mod, nil
}

// LoadFixtureFile reads a yaml.v3 fixture file and returns its modules keyed
// by name, mirroring core/program.go's LoadProgramFileFromYAML shape.
func LoadFixtureFile(path string) (map[string]*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pform: reading fixture %s: %w", path, err)
	}
	var root FixtureRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("pform: parsing fixture %s: %w", path, err)
	}
	out := make(map[string]*Module, len(root.Modules))
	for i := range root.Modules {
		if root.Modules[i].File == "" {
			root.Modules[i].File = path
		}
		mod, err := root.Modules[i].ToModule()
		if err != nil {
			return nil, err
		}
		out[mod.Name] = mod
	}
	return out, nil
}
