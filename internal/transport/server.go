// Package transport is the thin, out-of-scope-by-contract adapter spec.md
// §1 and §6 describe: the HTTP landing/editor pages, the WebSocket upgrade,
// and the /metrics endpoint, built the way the teacher's pkg/server builds
// its HTTP surface (net/http.ServeMux, a small Server wrapper satisfying
// http.Handler) but talking to this core's session.Manager and
// dispatch.Dispatcher instead of a *Kolabpad.
package transport

import (
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shavel-Viktoryia/collab-editor/internal/broadcast"
	"github.com/Shavel-Viktoryia/collab-editor/internal/dispatch"
	"github.com/Shavel-Viktoryia/collab-editor/internal/logger"
	"github.com/Shavel-Viktoryia/collab-editor/internal/session"
)

// Server is the HTTP/WebSocket front for a single collab-editor process.
type Server struct {
	sessions   *session.Manager
	dispatcher *dispatch.Dispatcher
	hub        *broadcast.Hub
	mux        *http.ServeMux
}

// New wires a Server over sessions/dispatcher/hub and registers its routes.
func New(sessions *session.Manager, dispatcher *dispatch.Dispatcher, hub *broadcast.Hub) *Server {
	s := &Server{
		sessions:   sessions,
		dispatcher: dispatcher,
		hub:        hub,
		mux:        http.NewServeMux(),
	}

	s.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	s.mux.HandleFunc("/", s.handleRoot)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleRoot dispatches between the landing page ("GET /") and an editor
// page bound to a session ("GET /<session_id>"), per spec.md §6. The
// WebSocket upgrade lives at "/<session_id>/ws" so the plain path can keep
// serving the HTML editor shell; the path's session_id segment is cosmetic
// for the socket route (the client's own "join" frame, per spec.md §6's
// event table, is what the core actually acts on).
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/":
		s.handleLanding(w, r)
	case len(path) > 4 && path[len(path)-3:] == "/ws":
		s.handleWebSocket(w, r, path[1:len(path)-3])
	default:
		s.handleEditor(w, r, path[1:])
	}
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := landingTemplate.Execute(w, nil); err != nil {
		logger.Error("transport: render landing page: %v", err)
	}
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request, sessionID string) {
	if sessionID == "" {
		http.NotFound(w, r)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		username = "Anonymous"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := editorPageData{SessionID: sessionID, Username: username}
	if err := editorTemplate.Execute(w, data); err != nil {
		logger.Error("transport: render editor page for session %s: %v", sessionID, err)
	}
}

type editorPageData struct {
	SessionID string
	Username  string
}

// newClientID mints a process-wide-unique client id. spec.md's Client
// glossary entry only requires "opaque adapter-assigned id unique
// process-wide" — a random UUID satisfies that without a shared counter.
func newClientID() string {
	return uuid.NewString()
}

var landingTemplate = template.Must(template.New("landing").Parse(`<!doctype html>
<html><head><title>collab-editor</title></head>
<body>
<h1>collab-editor</h1>
<p>Enter a session name in the URL, e.g. <code>/my-session</code>, to start or join a document.</p>
</body></html>
`))

var editorTemplate = template.Must(template.New("editor").Parse(`<!doctype html>
<html><head><title>{{.SessionID}} - collab-editor</title></head>
<body>
<div id="app" data-session-id="{{.SessionID}}" data-username="{{.Username}}"></div>
<script src="/static/editor.js"></script>
</body></html>
`))
