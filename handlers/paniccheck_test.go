package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/urfave/negroni/v3"

	"code.cloudfoundry.org/webserv/handlers"
	"code.cloudfoundry.org/webserv/test_util"
)

var _ = Describe("Paniccheck", func() {
	var (
		logger       *test_util.TestLogger
		panicHandler negroni.Handler
		request      *http.Request
		recorder     *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		logger = test_util.NewTestLogger("test")
		request = httptest.NewRequest("GET", "http://example.com/foo", nil)
		request.Host = "somehost.com"
		recorder = httptest.NewRecorder()
		panicHandler = handlers.NewPanicCheck(logger.Logger)
	})

	Context("when something panics", func() {
		var expectedPanic = func(http.ResponseWriter, *http.Request) {
			panic(errors.New("we expect this panic"))
		}

		It("responds with a 500 Internal Server Error", func() {
			panicHandler.ServeHTTP(recorder, request, expectedPanic)
			resp := recorder.Result()
			Expect(resp.StatusCode).To(Equal(500))
			Expect(request.Close).To(BeTrue())
		})

		It("logs the panic message with Host", func() {
			panicHandler.ServeHTTP(recorder, request, expectedPanic)
			Expect(logger.TestSink.Lines()[0]).To(ContainSubstring("somehost.com"))
			Expect(string(logger.Contents())).To(And(ContainSubstring("we expect this panic"), ContainSubstring("stacktrace")))
		})

		It("logs panics that are not errors", func() {
			panicHandler.ServeHTTP(recorder, request, func(http.ResponseWriter, *http.Request) {
				panic("plain string")
			})
			Expect(string(logger.Contents())).To(ContainSubstring("plain string"))
		})
	})

	Context("when there is no panic", func() {
		var noop = func(http.ResponseWriter, *http.Request) {}

		It("responds with a 200", func() {
			panicHandler.ServeHTTP(recorder, request, noop)
			resp := recorder.Result()
			Expect(resp.StatusCode).To(Equal(200))
		})

		It("does not log anything", func() {
			panicHandler.ServeHTTP(recorder, request, noop)
			Expect(string(logger.Contents())).NotTo(ContainSubstring("panic-check"))
		})
	})

	Context("when the panic is due to an abort", func() {
		var errAbort = func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}

		It("lets the panic through without logging", func() {
			Expect(func() {
				panicHandler.ServeHTTP(recorder, request, errAbort)
			}).To(PanicWith(http.ErrAbortHandler))
			Expect(string(logger.Contents())).NotTo(ContainSubstring("panic-check"))
		})
	})
})
