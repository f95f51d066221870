package synth_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/velab/elaborate"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/synth"
)

func elaborateFixture(doc, root string) *netlist.Design {
	var fr pform.FixtureRoot
	ExpectWithOffset(1, yaml.Unmarshal([]byte(doc), &fr)).To(Succeed())
	modules := make(map[string]*pform.Module, len(fr.Modules))
	for i := range fr.Modules {
		mod, err := fr.Modules[i].ToModule()
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		modules[mod.Name] = mod
	}
	des, report := elaborate.Elaborate(modules, nil, root)
	ExpectWithOffset(1, report.Errors).To(Equal(0))
	return des
}

func findFF(des *netlist.Design) *netlist.NetFF {
	for _, node := range des.Nodes() {
		if ff, ok := node.(*netlist.NetFF); ok {
			return ff
		}
	}
	return nil
}

func findRam(des *netlist.Design) *netlist.NetRamDq {
	for _, node := range des.Nodes() {
		if ram, ok := node.(*netlist.NetRamDq); ok {
			return ram
		}
	}
	return nil
}

const dffFixture = `
modules:
  - name: m
    ports:
      - [clk]
      - [d]
      - [q]
    wires:
      clk: {kind: wire, dir: input}
      d: {kind: wire, dir: input, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
      q: {kind: reg, dir: output, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
    processes:
      - kind: always
        stmt:
          kind: event
          events:
            - {kind: event, edge: posedge, expr: {kind: ident, name: clk}}
          stmt:
            kind: assignnb
            lval: {kind: ident, name: q}
            rval: {kind: ident, name: d}
`

const gatedNegedgeFixture = `
modules:
  - name: m
    ports:
      - [clk]
      - [ce]
      - [d]
      - [q]
    wires:
      clk: {kind: wire, dir: input}
      ce: {kind: wire, dir: input}
      d: {kind: wire, dir: input, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
      q: {kind: reg, dir: output, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
    processes:
      - kind: always
        stmt:
          kind: event
          events:
            - {kind: event, edge: negedge, expr: {kind: ident, name: clk}}
          stmt:
            kind: condit
            cond: {kind: ident, name: ce}
            then:
              kind: assignnb
              lval: {kind: ident, name: q}
              rval: {kind: ident, name: d}
`

const ramWriteFixture = `
modules:
  - name: m
    ports:
      - [clk]
      - [addr]
      - [data]
    wires:
      clk: {kind: wire, dir: input}
      addr: {kind: wire, dir: input, msb: {kind: num, value: "3"}, lsb: {kind: num, value: "0"}}
      data: {kind: wire, dir: input, msb: {kind: num, value: "7"}, lsb: {kind: num, value: "0"}}
      mem:
        kind: reg
        msb: {kind: num, value: "7"}
        lsb: {kind: num, value: "0"}
        memleft: {kind: num, value: "15"}
        memright: {kind: num, value: "0"}
    processes:
      - kind: always
        stmt:
          kind: event
          events:
            - {kind: event, edge: posedge, expr: {kind: ident, name: clk}}
          stmt:
            kind: assign
            lval: {kind: ident, name: mem, bit: {kind: ident, name: addr}}
            rval: {kind: ident, name: data}
`

const unmatchedFixture = `
modules:
  - name: m
    wires:
      a: {kind: reg}
      b: {kind: reg}
    processes:
      - kind: always
        stmt:
          kind: event
          events:
            - {kind: event, edge: anyedge, expr: {kind: ident, name: b}}
          stmt:
            kind: assign
            lval: {kind: ident, name: a}
            rval: {kind: ident, name: b}
      - kind: initial
        stmt:
          kind: assign
          lval: {kind: ident, name: a}
          rval: {kind: num, value: "0"}
`

var _ = Describe("Run", func() {
	Context("on a plain posedge register transfer", func() {
		var des *netlist.Design

		BeforeEach(func() {
			des = elaborateFixture(dffFixture, "m")
			synth.Run(des)
		})

		It("should delete the behavioral process", func() {
			Expect(des.Procs()).To(BeEmpty())
		})

		It("should build a flip-flop of the register's width", func() {
			ff := findFF(des)
			Expect(ff).NotTo(BeNil())
			Expect(ff.Width()).To(Equal(4))
			Expect(ff.HasEnable).To(BeFalse())
		})

		It("should wire data, q, and clock", func() {
			ff := findFF(des)
			scope, _ := des.ScopeByFQName("m")
			d, _ := des.FindSignal(scope, "d")
			q, _ := des.FindSignal(scope, "q")
			clk, _ := des.FindSignal(scope, "clk")
			for i := 0; i < 4; i++ {
				Expect(des.Connected(ff.DataPins[i], d.Pin(i))).To(BeTrue())
				Expect(des.Connected(ff.QPins[i], q.Pin(i))).To(BeTrue())
			}
			Expect(des.Connected(ff.ClockPin, clk.Pin(0))).To(BeTrue())
		})

		It("should tag the device as a DFF without clock inversion", func() {
			ff := findFF(des)
			Expect(ff.Attributes["LPM_FFType"]).To(Equal("DFF"))
			Expect(ff.Attributes).NotTo(HaveKey("Clock:LPM_Polarity"))
		})
	})

	Context("on a gated negedge register transfer", func() {
		var des *netlist.Design

		BeforeEach(func() {
			des = elaborateFixture(gatedNegedgeFixture, "m")
			synth.Run(des)
		})

		It("should build an enabled flip-flop with an inverted clock", func() {
			Expect(des.Procs()).To(BeEmpty())

			ff := findFF(des)
			Expect(ff).NotTo(BeNil())
			Expect(ff.HasEnable).To(BeTrue())
			Expect(ff.Attributes["Clock:LPM_Polarity"]).To(Equal("INVERT"))

			scope, _ := des.ScopeByFQName("m")
			ce, _ := des.FindSignal(scope, "ce")
			Expect(des.Connected(ff.EnablePin, ce.Pin(0))).To(BeTrue())
		})
	})

	Context("on a clocked memory write", func() {
		var des *netlist.Design

		BeforeEach(func() {
			des = elaborateFixture(ramWriteFixture, "m")
			synth.Run(des)
		})

		It("should build a RAM write port and delete the process", func() {
			Expect(des.Procs()).To(BeEmpty())

			ram := findRam(des)
			Expect(ram).NotTo(BeNil())
			Expect(ram.Memory.FQName).To(Equal("m.mem"))
			Expect(ram.AddrPins).To(HaveLen(4))
			Expect(ram.DataPins).To(HaveLen(8))

			scope, _ := des.ScopeByFQName("m")
			addr, _ := des.FindSignal(scope, "addr")
			data, _ := des.FindSignal(scope, "data")
			clk, _ := des.FindSignal(scope, "clk")
			for i := 0; i < 4; i++ {
				Expect(des.Connected(ram.AddrPins[i], addr.Pin(i))).To(BeTrue())
			}
			for i := 0; i < 8; i++ {
				Expect(des.Connected(ram.DataPins[i], data.Pin(i))).To(BeTrue())
			}
			Expect(des.Connected(ram.InClockPin, clk.Pin(0))).To(BeTrue())
		})
	})

	Context("on processes outside the pattern", func() {
		It("should leave them intact", func() {
			des := elaborateFixture(unmatchedFixture, "m")
			before := len(des.Procs())
			synth.Run(des)
			Expect(des.Procs()).To(HaveLen(before))
			Expect(findFF(des)).To(BeNil())
		})
	})

	Context("preservation of assigned signals", func() {
		It("should keep the l-value signal set unchanged", func() {
			des := elaborateFixture(dffFixture, "m")
			namesBefore := map[string]bool{}
			for _, sig := range des.Signals() {
				namesBefore[sig.FQName] = true
			}
			synth.Run(des)
			for _, sig := range des.Signals() {
				if !sig.Local {
					Expect(namesBefore).To(HaveKey(sig.FQName))
				}
			}
		})
	})
})
