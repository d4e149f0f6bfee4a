package watchdog_test

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"code.cloudfoundry.org/webserv/healthchecker/watchdog"
	"code.cloudfoundry.org/webserv/test_util"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Watchdog", func() {
	var (
		srv                *http.Server
		dog                *watchdog.Watchdog
		addr               string
		pollInterval       time.Duration
		healthcheckTimeout time.Duration
		logger             *slog.Logger
	)

	healthcheckTimeout = 5 * time.Millisecond
	runServer := func(httpHandler http.Handler) *http.Server {
		localSrv := http.Server{
			Addr:    addr,
			Handler: httpHandler,
		}
		go func() {
			defer GinkgoRecover()
			localSrv.ListenAndServe()
		}()
		Eventually(func() error {
			conn, err := net.Dial("tcp", addr)
			if err == nil {
				conn.Close()
			}
			return err
		}).Should(Not(HaveOccurred()))
		return &localSrv
	}

	BeforeEach(func() {
		addr = fmt.Sprintf("127.0.0.1:%d", test_util.NextAvailPort())
		pollInterval = 10 * time.Millisecond
		logger = test_util.NewTestLogger("watchdog").Logger
	})

	JustBeforeEach(func() {
		dog = watchdog.NewWatchdog("http://"+addr, pollInterval, healthcheckTimeout, logger)
	})

	AfterEach(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()
		srv.Shutdown(ctx)
		srv.Close()
	})

	Context("HitHealthcheckEndpoint", func() {
		var statusCode atomic.Int32

		BeforeEach(func() {
			httpHandler := http.NewServeMux()
			httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
				rw.WriteHeader(int(statusCode.Load()))
				r.Close = true
			})
			srv = runServer(httpHandler)
		})

		It("does not return an error if the endpoint responds with a 200", func() {
			statusCode.Store(http.StatusOK)
			err := dog.HitHealthcheckEndpoint()
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns an error if the endpoint does not respond with a 200", func() {
			statusCode.Store(http.StatusServiceUnavailable)

			err := dog.HitHealthcheckEndpoint()
			Expect(err).To(MatchError(ContainSubstring("503 received from healthcheck endpoint")))
		})
	})

	Context("WatchHealthcheckEndpoint", func() {
		var signals chan os.Signal

		BeforeEach(func() {
			signals = make(chan os.Signal)
		})

		Context("the healthcheck passes repeatedly", func() {
			BeforeEach(func() {
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					rw.WriteHeader(http.StatusOK)
					r.Close = true
				})
				srv = runServer(httpHandler)
			})

			It("does not return an error", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*pollInterval)
				defer cancel()
				err := dog.WatchHealthcheckEndpoint(ctx, signals)
				Expect(err).NotTo(HaveOccurred())
			})
		})

		Context("the healthcheck first passes, and subsequently fails", func() {
			BeforeEach(func() {
				var visitCount atomic.Int32
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					if visitCount.Add(1) == 1 {
						rw.WriteHeader(http.StatusOK)
					} else {
						rw.WriteHeader(http.StatusServiceUnavailable)
					}
					r.Close = true
				})
				srv = runServer(httpHandler)
			})

			It("returns an error", func() {
				err := dog.WatchHealthcheckEndpoint(context.Background(), signals)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("the endpoint does not respond in the configured timeout", func() {
			BeforeEach(func() {
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					time.Sleep(5 * healthcheckTimeout)
					rw.WriteHeader(http.StatusOK)
					r.Close = true
				})
				srv = runServer(httpHandler)
			})

			It("returns an error", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*healthcheckTimeout)
				defer cancel()
				err := dog.WatchHealthcheckEndpoint(ctx, signals)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("context is canceled", func() {
			var ctx context.Context
			var visitCount atomic.Int32

			BeforeEach(func() {
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(context.Background())
				visitCount.Store(0)
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					rw.WriteHeader(http.StatusOK)
					r.Close = true
					if visitCount.Add(1) == 3 {
						cancel()
					}
				})
				srv = runServer(httpHandler)
			})

			It("stops the healthchecker", func() {
				err := dog.WatchHealthcheckEndpoint(ctx, signals)
				Expect(err).NotTo(HaveOccurred())
				Expect(visitCount.Load()).To(Equal(int32(3)))
			})
		})

		Context("received USR1 signal", func() {
			var visitCount atomic.Int32

			BeforeEach(func() {
				visitCount.Store(0)
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					rw.WriteHeader(http.StatusOK)
					r.Close = true
					if visitCount.Add(1) == 3 {
						go func() {
							signals <- syscall.SIGUSR1
						}()
					}
				})
				srv = runServer(httpHandler)
			})

			It("stops the healthchecker without an error", func() {
				err := dog.WatchHealthcheckEndpoint(context.Background(), signals)
				Expect(err).NotTo(HaveOccurred())
				Expect(visitCount.Load()).To(Equal(int32(3)))
			})
		})

		Context("webserv is draining when USR1 arrives", func() {
			BeforeEach(func() {
				httpHandler := http.NewServeMux()
				httpHandler.HandleFunc("/health", func(rw http.ResponseWriter, r *http.Request) {
					rw.WriteHeader(http.StatusServiceUnavailable)
					r.Close = true
					go func() {
						signals <- syscall.SIGUSR1
					}()
				})
				srv = runServer(httpHandler)
			})

			It("stops the healthchecker without an error", func() {
				err := dog.WatchHealthcheckEndpoint(context.Background(), signals)
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})
})
