// Package api serves the http interface of txstats: transaction submission and statistics queries.
package api

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/balaghali/N26Statistics/clock"
	"github.com/balaghali/N26Statistics/input"
	"github.com/balaghali/N26Statistics/window"
	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
	"gopkg.in/macaron.v1"
)

type Server struct {
	Addr     string
	SSL      bool
	certFile string
	keyFile  string
	Macaron  *macaron.Macaron
	Window   *window.Window
	Clock    clock.Clock
	Tracer   opentracing.Tracer
	handler  input.Handler
	shutdown chan struct{}
}

func (s *Server) BindWindow(w *window.Window) {
	s.Window = w
}

func (s *Server) BindClock(c clock.Clock) {
	s.Clock = c
}

func (s *Server) BindTracer(tracer opentracing.Tracer) {
	s.Tracer = tracer
}

func NewServer() (*Server, error) {
	m := macaron.New()
	m.Use(macaron.Recovery())

	return &Server{
		Addr:     Addr,
		SSL:      UseSSL,
		certFile: certFile,
		keyFile:  keyFile,
		Macaron:  m,
		Clock:    clock.Real{},
		Tracer:   opentracing.NoopTracer{},
		shutdown: make(chan struct{}),
	}, nil
}

func (s *Server) Run() {
	s.RegisterRoutes()
	proto := "http"
	if s.SSL {
		proto = "https"
	}
	log.Infof("API Listening on: %v://%s/", proto, s.Addr)

	// define our own listener so we can call Close on it
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		log.Fatalf("API failed to listen on %s, %s", s.Addr, err.Error())
	}
	go s.handleShutdown(l)
	srv := http.Server{
		Addr:    s.Addr,
		Handler: s.Macaron,
	}
	if s.SSL {
		cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
		if err != nil {
			log.Fatalf("API Failed to start server: %v", err)
		}
		srv.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			NextProtos:   []string{"http/1.1"},
		}
		tlsListener := tls.NewListener(tcpKeepAliveListener{l.(*net.TCPListener)}, srv.TLSConfig)
		err = srv.Serve(tlsListener)
	} else {
		err = srv.Serve(tcpKeepAliveListener{l.(*net.TCPListener)})
	}

	if err != nil {
		log.Infof("API %s", err.Error())
	}
}

func (s *Server) Stop() {
	close(s.shutdown)
}

func (s *Server) handleShutdown(l net.Listener) {
	<-s.shutdown
	log.Info("API shutdown started.")
	l.Close()
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (c net.Conn, err error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)
	return tc, nil
}
