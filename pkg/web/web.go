// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package web serves a vlitz session over HTTP: a small JSON API, a
// websocket console and the embedded console page.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/vlitzdev/vlitz/pkg/executor"
	"github.com/vlitzdev/vlitz/pkg/panichandler"
	"github.com/vlitzdev/vlitz/pkg/utilds"
	"github.com/vlitzdev/vlitz/pkg/vzdata"
	"github.com/vlitzdev/vlitz/pkg/vzlog"
)

// Header constants
const (
	CacheControlHeaderKey     = "Cache-Control"
	CacheControlHeaderNoCache = "no-cache"

	ContentTypeHeaderKey = "Content-Type"
	ContentTypeJson      = "application/json"
)

const HttpReadTimeout = 5 * time.Second
const HttpWriteTimeout = 21 * time.Second
const HttpMaxHeaderBytes = 60000
const HttpTimeoutDuration = 21 * time.Second

// largest accepted /api/exec body
const maxExecBodySize = 64 * 1024

type WebFnType = func(http.ResponseWriter, *http.Request)

type WebFnOpts struct {
	AllowCaching bool
	JsonErrors   bool
}

// Server shares one executor between every HTTP and websocket client.
// Commands run one at a time under Lock.
type Server struct {
	Lock      *sync.Mutex
	exec      *executor.Executor
	conns     *utilds.SyncMap[string, *websocket.Conn]
	AllowCORS bool
}

func MakeServer(exec *executor.Executor) *Server {
	return &Server{
		Lock:  &sync.Mutex{},
		exec:  exec,
		conns: utilds.MakeSyncMap[string, *websocket.Conn](),
	}
}

// ExecResult is the reply to one console line.
type ExecResult struct {
	Line   string          `json:"line"`
	Result executor.Result `json:"result"`
	Prompt string          `json:"prompt"`
}

// Exec runs one console line. A panic inside a command is reported as an
// error result instead of taking the server down.
func (s *Server) Exec(ctx context.Context, line string) (rtn ExecResult) {
	s.Lock.Lock()
	defer s.Lock.Unlock()
	rtn.Line = line
	defer func() {
		if err := panichandler.PanicHandler("web exec", recover()); err != nil {
			rtn.Result = executor.Error("internal error: %v", err)
			rtn.Prompt = s.exec.Prompt()
		}
	}()
	rtn.Result = s.exec.ExecuteLine(ctx, line)
	rtn.Prompt = s.exec.Prompt()
	return rtn
}

func WriteJsonError(w http.ResponseWriter, errVal error) {
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	w.WriteHeader(http.StatusOK)
	errMap := make(map[string]any)
	errMap["error"] = errVal.Error()
	barr, _ := json.Marshal(errMap)
	w.Write(barr)
}

func WriteJsonSuccess(w http.ResponseWriter, data any) {
	w.Header().Set(ContentTypeHeaderKey, ContentTypeJson)
	rtnMap := make(map[string]any)
	rtnMap["success"] = true
	if data != nil {
		rtnMap["data"] = data
	}
	barr, err := json.Marshal(rtnMap)
	if err != nil {
		WriteJsonError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(barr)
}

func WebFnWrap(opts WebFnOpts, fn WebFnType) WebFnType {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := panichandler.PanicHandler("web handler", recover()); err != nil {
				if opts.JsonErrors {
					WriteJsonError(w, fmt.Errorf("internal server error"))
				} else {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}
		}()
		if !opts.AllowCaching {
			w.Header().Set(CacheControlHeaderKey, CacheControlHeaderNoCache)
		}
		fn(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJsonSuccess(w, map[string]any{
		"status":  "ok",
		"time":    time.Now().UnixMilli(),
		"session": s.exec.SessionId(),
		"conns":   s.conns.Len(),
	})
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	s.Lock.Lock()
	prompt := s.exec.Prompt()
	s.Lock.Unlock()
	WriteJsonSuccess(w, map[string]any{"prompt": prompt})
}

func (s *Server) handleLib(w http.ResponseWriter, r *http.Request) {
	s.Lock.Lock()
	lib := s.exec.Store().Lib()
	s.Lock.Unlock()
	items := make([]vzdata.IndexedItem, len(lib))
	for i, item := range lib {
		items[i] = vzdata.IndexedItem{Index: i, Item: item}
	}
	WriteJsonSuccess(w, map[string]any{"items": items})
}

type logPage struct {
	Page  int                  `json:"page"`
	Pages int                  `json:"pages"`
	Total int                  `json:"total"`
	Items []vzdata.IndexedItem `json:"items"`
}

// handleLog returns one log page (1-based "page" query param, default the
// session's current page) without moving the session's page.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	s.Lock.Lock()
	ds := s.exec.Store()
	logItems := ds.Log()
	libLen := ds.LibLen()
	perPage := ds.ItemsPerPage()
	page := ds.CurrentPage() + 1
	pages := ds.LogPageCount()
	s.Lock.Unlock()

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 1 {
			WriteJsonError(w, fmt.Errorf("invalid page %q", pageStr))
			return
		}
		page = n
	}
	rtn := logPage{Page: page, Pages: pages, Total: len(logItems), Items: []vzdata.IndexedItem{}}
	start := (page - 1) * perPage
	for i := start; i < len(logItems) && i < start+perPage; i++ {
		rtn.Items = append(rtn.Items, vzdata.IndexedItem{Index: libLen + i, Item: logItems[i]})
	}
	WriteJsonSuccess(w, rtn)
}

type execRequest struct {
	Line string `json:"line"`
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req execRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxExecBodySize)).Decode(&req); err != nil {
		WriteJsonError(w, fmt.Errorf("invalid request: %w", err))
		return
	}
	WriteJsonSuccess(w, s.Exec(r.Context(), req.Line))
}

// Router wires the API, the websocket and the console page. API routes run
// under a timeout; the websocket route cannot.
func (s *Server) Router() http.Handler {
	gr := mux.NewRouter()
	jsonOpts := WebFnOpts{AllowCaching: false, JsonErrors: true}
	api := mux.NewRouter()
	api.HandleFunc("/health", WebFnWrap(jsonOpts, s.handleHealth)).Methods(http.MethodGet)
	api.HandleFunc("/api/prompt", WebFnWrap(jsonOpts, s.handlePrompt)).Methods(http.MethodGet)
	api.HandleFunc("/api/lib", WebFnWrap(jsonOpts, s.handleLib)).Methods(http.MethodGet)
	api.HandleFunc("/api/log", WebFnWrap(jsonOpts, s.handleLog)).Methods(http.MethodGet)
	api.HandleFunc("/api/exec", WebFnWrap(jsonOpts, s.handleExec)).Methods(http.MethodPost)
	timed := http.TimeoutHandler(api, HttpTimeoutDuration, "Timeout")

	gr.HandleFunc("/ws", s.HandleWs)
	gr.PathPrefix("/api/").Handler(timed)
	gr.Handle("/health", timed)
	staticFS := GetFileSystem()
	gr.PathPrefix("/").HandlerFunc(WebFnWrap(WebFnOpts{AllowCaching: true}, func(w http.ResponseWriter, r *http.Request) {
		ServeIndexOrFile(w, r, staticFS)
	}))

	var handler http.Handler = gr
	if s.AllowCORS {
		handler = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
			handlers.AllowedHeaders([]string{ContentTypeHeaderKey}),
		)(handler)
	}
	return handler
}

func MakeTCPListener(serviceName string, addr string) (net.Listener, error) {
	if addr == "" {
		addr = "127.0.0.1:0" // Use any available port
	}
	rtn, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error creating listener at %v: %v", addr, err)
	}
	vzlog.Logger("web").Infof("server [%s] listening on %s", serviceName, rtn.Addr())
	return rtn, nil
}

// Run serves until ctx is canceled. Requests are access-logged to the vlitz
// log.
func (s *Server) Run(ctx context.Context, listener net.Listener) error {
	accessLog := vzlog.Logger("web").WithField("kind", "access").Writer()
	defer accessLog.Close()
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        handlers.CombinedLoggingHandler(accessLog, s.Router()),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.closeConns()
		server.Shutdown(shutdownCtx)
	}()
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
