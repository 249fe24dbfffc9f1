package api

import (
	"net/http"

	"github.com/balaghali/N26Statistics/api/middleware"
	"github.com/balaghali/N26Statistics/api/models"
	"github.com/balaghali/N26Statistics/input"
	"github.com/go-macaron/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raintank/gziper"
	"gopkg.in/macaron.v1"
)

func (s *Server) RegisterRoutes() {
	s.handler = input.NewDefaultHandler(s.Window, s.Clock, "http")

	r := s.Macaron
	if useGzip {
		r.Use(gziper.Gziper())
	}
	r.Use(middleware.RequestStats())
	r.Use(middleware.Tracer(s.Tracer))
	r.Use(middleware.Contexter())
	r.Use(middleware.Logger())
	if corsEnabled {
		r.Use(middleware.CorsHandler())
	}

	bind := binding.Bind

	r.Get("/", s.appStatus)
	r.Post("/transactions", binding.Json(models.TransactionRequest{}), s.addTransaction)
	r.Get("/statistics", bind(models.StatisticsQuery{}), s.getStatistics)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/debug/pprof/block", blockHandler)
	r.Get("/debug/pprof/mutex", mutexHandler)
	r.Get("/debug/pprof/*", func(ctx *macaron.Context) {
		http.DefaultServeMux.ServeHTTP(ctx.Resp, ctx.Req.Request)
	})

	r.Options("/*", func(ctx *macaron.Context) {
		ctx.Resp.WriteHeader(http.StatusOK)
	})
}
