package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"go.uber.org/zap/zapcore"

	"code.cloudfoundry.org/webserv/handlers"
	"code.cloudfoundry.org/webserv/test_util"
)

var _ = Describe("LogLevel", func() {
	var (
		logger   *test_util.TestLogger
		handler  http.Handler
		recorder *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		logger = test_util.NewTestLogger("test")
		handler = handlers.NewLogLevel(logger.Factory, logger.Logger)
		recorder = httptest.NewRecorder()
	})

	put := func(body string) {
		req := httptest.NewRequest("PUT", "http://localhost/log-level", strings.NewReader(body))
		handler.ServeHTTP(recorder, req)
	}

	It("changes the level of the process logger", func() {
		put("error")
		Expect(recorder.Code).To(Equal(http.StatusNoContent))
		Expect(logger.Factory.Level()).To(Equal(zapcore.ErrorLevel))

		logger.Info("should-not-appear")
		Expect(string(logger.Contents())).ToNot(ContainSubstring("should-not-appear"))
	})

	It("accepts a trailing newline and any case", func() {
		put("DEBUG\n")
		Expect(recorder.Code).To(Equal(http.StatusNoContent))
		Expect(logger.Factory.Level()).To(Equal(zapcore.DebugLevel))
		Expect(logger).To(gbytes.Say(`"level":"debug"`))
	})

	It("rejects unknown levels", func() {
		put("verbose")
		Expect(recorder.Code).To(Equal(http.StatusBadRequest))
		Expect(recorder.Body.String()).To(ContainSubstring(`unknown log level: "verbose"`))
		Expect(logger.Factory.Level()).To(Equal(zapcore.DebugLevel))
	})

	It("only accepts writes", func() {
		req := httptest.NewRequest("GET", "http://localhost/log-level", nil)
		handler.ServeHTTP(recorder, req)
		Expect(recorder.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(recorder.Header().Get("Allow")).To(Equal("PUT, POST"))
	})
})
