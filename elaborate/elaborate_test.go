package elaborate_test

import (
	"reflect"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/elaborate"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/nexus"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// loadModules parses an inline fixture document into a module table.
func loadModules(doc string) map[string]*pform.Module {
	var root pform.FixtureRoot
	ExpectWithOffset(1, yaml.Unmarshal([]byte(doc), &root)).To(Succeed())
	out := make(map[string]*pform.Module, len(root.Modules))
	for i := range root.Modules {
		mod, err := root.Modules[i].ToModule()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		out[mod.Name] = mod
	}
	return out
}

const continuousAssignFixture = `
modules:
  - name: m
    ports:
      - [y]
      - [a]
    wires:
      y: {kind: wire, dir: output, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
      a: {kind: wire, dir: input, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
    gates:
      - kind: assign
        lval: {kind: ident, name: y}
        rval: {kind: ident, name: a}
`

const hierarchyFixture = `
modules:
  - name: inv
    params:
      - {name: W, default: {kind: num, value: "1"}}
    ports:
      - [y]
      - [a]
    wires:
      y:
        kind: wire
        dir: output
        msb: {kind: binary, op: "-", l: {kind: ident, name: W}, r: {kind: num, value: "1"}}
        lsb: {kind: num, value: "0"}
      a:
        kind: wire
        dir: input
        msb: {kind: binary, op: "-", l: {kind: ident, name: W}, r: {kind: num, value: "1"}}
        lsb: {kind: num, value: "0"}
    gates:
      - kind: assign
        lval: {kind: ident, name: y}
        rval: {kind: unary, op: "~", operand: {kind: ident, name: a}}
  - name: top
    wires:
      x: {kind: wire, msb: {kind: num, value: "7"}, lsb: {kind: num, value: "0"}}
      z: {kind: wire, msb: {kind: num, value: "7"}, lsb: {kind: num, value: "0"}}
    gates:
      - kind: instance
        instance: u
        target: inv
        positional:
          - {kind: ident, name: z}
          - {kind: ident, name: x}
        params:
          - {kind: num, value: "8"}
`

const duplicateInstanceFixture = `
modules:
  - name: leaf
  - name: m
    gates:
      - {kind: instance, instance: u1, target: leaf}
      - {kind: instance, instance: u1, target: leaf}
`

const recursiveFunctionFixture = `
modules:
  - name: m
    wires:
      r: {kind: reg, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
    functions:
      f:
        return: {kind: reg, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
        portorder: [n]
        ports:
          n: {kind: reg, dir: input, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
        body:
          kind: assign
          lval: {kind: ident, name: f}
          rval:
            kind: call
            name: f
            args:
              - kind: binary
                op: "-"
                l: {kind: ident, name: n}
                r: {kind: num, value: "1"}
    processes:
      - kind: initial
        stmt:
          kind: assign
          lval: {kind: ident, name: r}
          rval: {kind: call, name: f, args: [{kind: num, value: "2"}]}
`

var _ = Describe("Elaborate", func() {
	Context("with a simple continuous assign", func() {
		var (
			des    *netlist.Design
			report *diag.Report
		)

		BeforeEach(func() {
			des, report = elaborate.Elaborate(loadModules(continuousAssignFixture), nil, "m")
		})

		It("should report no errors", func() {
			Expect(report.Errors).To(Equal(0))
		})

		It("should create the module scope and both signals", func() {
			_, ok := des.ScopeByFQName("m")
			Expect(ok).To(BeTrue())

			scope, _ := des.ScopeByFQName("m")
			y, ok := des.FindSignal(scope, "y")
			Expect(ok).To(BeTrue())
			Expect(y.Width()).To(Equal(4))

			a, ok := des.FindSignal(scope, "a")
			Expect(ok).To(BeTrue())
			Expect(a.Width()).To(Equal(4))
		})

		It("should drive each y bit from the matching a bit through a bufz", func() {
			scope, _ := des.ScopeByFQName("m")
			y, _ := des.FindSignal(scope, "y")
			a, _ := des.FindSignal(scope, "a")

			var bufz []*netlist.NetLogic
			for _, node := range des.Nodes() {
				if lg, ok := node.(*netlist.NetLogic); ok && lg.Type == netlist.LogicBufz {
					bufz = append(bufz, lg)
				}
			}
			Expect(bufz).To(HaveLen(4))

			for i := 0; i < 4; i++ {
				var driven, fed bool
				for _, lg := range bufz {
					if des.Connected(lg.Pins[0], y.Pin(i)) && des.Connected(lg.Pins[1], a.Pin(i)) {
						driven, fed = true, true
					}
				}
				Expect(driven).To(BeTrue())
				Expect(fed).To(BeTrue())
			}
		})
	})

	Context("with a module hierarchy and a parameter override", func() {
		var (
			des    *netlist.Design
			report *diag.Report
		)

		BeforeEach(func() {
			des, report = elaborate.Elaborate(loadModules(hierarchyFixture), nil, "top")
		})

		It("should report no errors", func() {
			Expect(report.Errors).To(Equal(0))
		})

		It("should create the instance scope", func() {
			_, ok := des.ScopeByFQName("top")
			Expect(ok).To(BeTrue())
			_, ok = des.ScopeByFQName("top.u")
			Expect(ok).To(BeTrue())
		})

		It("should fold the overridden parameter to a constant", func() {
			v, ok := des.FindParameter("top.u.W")
			Expect(ok).To(BeTrue())
			Expect(v.Int64()).To(Equal(int64(8)))
		})

		It("should size the instance ports by the override", func() {
			scope, _ := des.ScopeByFQName("top.u")
			y, ok := des.FindSignal(scope, "y")
			Expect(ok).To(BeTrue())
			Expect(y.Width()).To(Equal(8))
		})

		It("should expand the bitwise complement to one NOT gate per bit", func() {
			count := 0
			for _, node := range des.Nodes() {
				if lg, ok := node.(*netlist.NetLogic); ok && lg.Type == netlist.LogicNot {
					count++
				}
			}
			Expect(count).To(Equal(8))
		})

		It("should splice the outer bus onto the inner port pins", func() {
			topScope, _ := des.ScopeByFQName("top")
			uScope, _ := des.ScopeByFQName("top.u")
			z, _ := des.FindSignal(topScope, "z")
			y, _ := des.FindSignal(uScope, "y")
			// The decrementing counter order pairs bits off identically
			// for a single-wire port.
			for i := 0; i < 8; i++ {
				Expect(des.Connected(z.Pin(i), y.Pin(i))).To(BeTrue())
			}
		})
	})

	Context("with a duplicate instance name", func() {
		It("should report once and keep going", func() {
			des, report := elaborate.Elaborate(loadModules(duplicateInstanceFixture), nil, "m")
			Expect(report.Errors).To(Equal(1))
			Expect(report.Issues[0].Message).To(ContainSubstring("Instance/Scope name u1 already used in this context."))
			_, ok := des.ScopeByFQName("m.u1")
			Expect(ok).To(BeTrue())
		})
	})

	Context("with a recursive function", func() {
		It("should resolve the self-call through the two-pass tables", func() {
			des, report := elaborate.Elaborate(loadModules(recursiveFunctionFixture), nil, "m")
			Expect(report.Errors).To(Equal(0))

			scope, _ := des.ScopeByFQName("m")
			def, ok := des.FindFunc(scope, "f")
			Expect(ok).To(BeTrue())
			Expect(def.Body).NotTo(BeNil())
			Expect(def.Return.Width()).To(Equal(4))
		})
	})

	Context("with a missing instantiation target", func() {
		It("should report an unknown module", func() {
			ctrl := gomock.NewController(GinkgoT())
			defer ctrl.Finish()

			lookup := NewMockModuleLookup(ctrl)
			lookup.EXPECT().FindModule("ghost").Return(nil, false)
			lookup.EXPECT().FindUDP("ghost").Return(nil, false)

			des := netlist.NewDesign()
			report := &diag.Report{}
			ctx := &elaborate.ElabCtx{Lookup: lookup, Design: des, Report: report}
			scope, ok := des.NewScope(des.Root(), netlist.ModuleScope, "m")
			Expect(ok).To(BeTrue())

			elaborate.ElaborateModuleInstance(ctx, scope, pform.GateModule{
				InstanceName: "u0",
				TargetName:   "ghost",
			})

			Expect(report.Errors).To(Equal(1))
			Expect(report.Issues[0].Message).To(ContainSubstring("Unknown module or primitive"))
		})
	})

	Context("universal properties", func() {
		It("should keep fully qualified scope names unique", func() {
			des, _ := elaborate.Elaborate(loadModules(hierarchyFixture), nil, "top")
			seen := map[string]bool{}
			for _, s := range des.Scopes() {
				Expect(seen[s.FQName]).To(BeFalse())
				seen[s.FQName] = true
			}
		})

		It("should keep connection membership symmetric", func() {
			des, _ := elaborate.Elaborate(loadModules(continuousAssignFixture), nil, "m")
			scope, _ := des.ScopeByFQName("m")
			y, _ := des.FindSignal(scope, "y")
			a, _ := des.FindSignal(scope, "a")
			for i := 0; i < 4; i++ {
				Expect(des.Connected(y.Pin(i), y.Pin(i))).To(BeTrue())
				Expect(des.Connected(y.Pin(i), a.Pin(i))).To(
					Equal(des.Connected(a.Pin(i), y.Pin(i))))
			}
		})

		It("should name every pin of a nexus identically", func() {
			des, _ := elaborate.Elaborate(loadModules(continuousAssignFixture), nil, "m")
			scope, _ := des.ScopeByFQName("m")
			y, _ := des.FindSignal(scope, "y")
			for i := 0; i < 4; i++ {
				members := des.NexusMembers(y.Pin(i))
				Expect(len(members)).To(BeNumerically(">", 1))
				want := nexus.NameOf(des, y.Pin(i))
				for _, p := range members {
					Expect(nexus.NameOf(des, p)).To(Equal(want))
				}
			}
		})

		It("should produce structurally identical designs on re-elaboration", func() {
			d1, r1 := elaborate.Elaborate(loadModules(hierarchyFixture), nil, "top")
			d2, r2 := elaborate.Elaborate(loadModules(hierarchyFixture), nil, "top")
			Expect(r1.Errors).To(Equal(r2.Errors))
			Expect(len(d1.Scopes())).To(Equal(len(d2.Scopes())))
			Expect(len(d1.Signals())).To(Equal(len(d2.Signals())))
			Expect(len(d1.Nodes())).To(Equal(len(d2.Nodes())))
			Expect(len(d1.Procs())).To(Equal(len(d2.Procs())))
		})

		It("should fold expression trees idempotently", func() {
			sig := &netlist.NetNet{Name: "s", MSB: 3, LSB: 0}
			exprs := []netlist.NetExpr{
				netlist.NetEConst{Value: verinum.FromInt64(5, 4)},
				netlist.NetEBinary{
					Op: "+",
					L:  netlist.NetEConst{Value: verinum.FromInt64(1, 4)},
					R:  netlist.NetEConst{Value: verinum.FromInt64(2, 4)},
					W:  4,
				},
				netlist.NetEBinary{
					Op: "+",
					L:  netlist.NetEConst{Value: verinum.FromInt64(1, 4)},
					R:  netlist.NetESignal{Sig: sig, MSB: 3, LSB: 0},
					W:  4,
				},
				netlist.NetEBComp{
					Op: "!=",
					L:  netlist.NetESignal{Sig: sig, MSB: 3, LSB: 0},
					R:  netlist.NetEConst{Value: verinum.FromInt64(0, 4)},
				},
			}
			for _, e := range exprs {
				once := elaborate.EvalTree(e)
				twice := elaborate.EvalTree(once)
				Expect(reflect.DeepEqual(once, twice)).To(BeTrue())
			}
		})
	})
})
