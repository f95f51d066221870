package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const simpleFixture = `
root: m
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

var _ = Describe("Server", func() {
	var server *serverImpl

	BeforeEach(func() {
		server = ServerBuilder{}.Build()
	})

	It("should answer health checks", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

		server.Handler().ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should elaborate a posted fixture", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/elaborate",
			strings.NewReader(simpleFixture))

		server.Handler().ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp ElaborateResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Errors).To(Equal(0))
		Expect(resp.Signals).To(BeNumerically(">=", 2))
	})

	It("should reject a request without a root module", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/elaborate",
			strings.NewReader("modules: []"))

		server.Handler().ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should report an unknown root module as unprocessable", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/elaborate",
			strings.NewReader("root: nosuch\nmodules: []"))

		server.Handler().ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))

		var resp ElaborateResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Errors).To(Equal(1))
	})
})
