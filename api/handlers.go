package api

import (
	"fmt"
	"net/http"

	"github.com/balaghali/N26Statistics/api/middleware"
	"github.com/balaghali/N26Statistics/api/models"
	"github.com/balaghali/N26Statistics/api/response"
	"github.com/balaghali/N26Statistics/tracing"
	"github.com/go-macaron/binding"
)

const welcome = "<h1>Welcome to statistics application</h1>"

func (s *Server) appStatus(ctx *middleware.Context) {
	ctx.Resp.Header().Set("content-type", "text/html; charset=utf-8")
	ctx.Resp.WriteHeader(http.StatusOK)
	ctx.Resp.Write([]byte(welcome))
}

// addTransaction responds 201 if the transaction was added to the window, and 204 otherwise.
// a body that is not json at all is ignored like any other unusable transaction.
func (s *Server) addTransaction(ctx *middleware.Context, req models.TransactionRequest, errs binding.Errors) {
	if errs.Len() > 0 {
		s.handler.ProcessUndecodable(fmt.Errorf("%s: %s", errs[0].Classification, errs[0].Message))
		response.Write(ctx.Resp, response.NewEmpty(http.StatusNoContent))
		return
	}

	_, span := tracing.NewSpan(ctx.Req.Context(), s.Tracer, "window.Ingest")
	accepted := s.handler.ProcessTransaction(&req.TransactionData)
	span.SetTag("accepted", accepted)
	span.Finish()

	if accepted {
		response.Write(ctx.Resp, response.NewEmpty(http.StatusCreated))
		return
	}
	response.Write(ctx.Resp, response.NewEmpty(http.StatusNoContent))
}

func (s *Server) getStatistics(ctx *middleware.Context, req models.StatisticsQuery) {
	_, span := tracing.NewSpan(ctx.Req.Context(), s.Tracer, "window.Snapshot")
	snap := s.Window.Snapshot(s.Clock.Now())
	span.SetTag("count", snap.Count)
	span.Finish()

	stats := models.NewStatistics(snap)
	switch req.Format {
	case "msgp", "msgpack":
		response.Write(ctx.Resp, response.NewMsgp(http.StatusOK, stats))
	default:
		response.Write(ctx.Resp, response.NewFastJson(http.StatusOK, stats))
	}
}
