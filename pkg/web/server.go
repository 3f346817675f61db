// Package web hosts the tour-site page shell and the chat widget endpoints.
// The page is static composition only; all conversational behavior stays in
// the widget core, and the browser renders pushed state.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/config"
	"github.com/tourvia/tourchat/pkg/logger"
	"github.com/tourvia/tourchat/pkg/widget"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the page shell and bridges browser events to one widget.
type Server struct {
	cfg    config.WebConfig
	widget *widget.Widget
	server *http.Server

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewServer(cfg config.WebConfig, w *widget.Widget) *Server {
	s := &Server{
		cfg:    cfg,
		widget: w,
		conns:  make(map[*websocket.Conn]bool),
	}
	w.OnChange(s.broadcast)
	return s
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePage)
	mux.HandleFunc("/chat/send", s.handleSend)
	mux.HandleFunc("/chat/toggle", s.handleToggle)
	mux.HandleFunc("/chat/poll", s.handlePoll)
	mux.HandleFunc("/chat/feedback", s.handleFeedback)
	mux.HandleFunc("/chat/ws", s.handleWS)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	logger.InfoCF("web", "Widget host started", map[string]interface{}{"addr": addr})

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("web", "Widget host error", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, pageHTML(s.cfg))
}

type sendRequest struct {
	Message string `json:"message"`
	Width   int    `json:"width"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if req.Width > 0 {
		s.widget.SetWidth(req.Width)
	}
	accepted := s.widget.Send(r.Context(), req.Message)
	writeJSON(w, map[string]bool{"accepted": accepted})
}

type toggleRequest struct {
	Width int `json:"width"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if req.Width > 0 {
		s.widget.SetWidth(req.Width)
	}
	state := s.widget.Toggle()
	writeJSON(w, map[string]string{"state": stateName(state)})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

type feedbackRequest struct {
	MessageID string `json:"message_id"`
	Polarity  string `json:"polarity"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var polarity chat.Polarity
	switch req.Polarity {
	case "positive":
		polarity = chat.FeedbackPositive
	case "negative":
		polarity = chat.FeedbackNegative
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	recorded := s.widget.SubmitFeedback(req.MessageID, polarity)
	writeJSON(w, map[string]bool{"recorded": recorded})
}

// handleWS upgrades the connection and pushes a snapshot on every widget
// state change. The browser only renders what it is sent.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnCF("web", "WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// Initial state so a reconnecting page catches up immediately.
	s.writeSnapshot(conn)

	go func() {
		defer s.dropConn(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropConn(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) broadcast() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		s.writeSnapshot(c)
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) {
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		return
	}
	s.mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.mu.Unlock()
	if err != nil {
		s.dropConn(conn)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func stateName(st widget.ShellState) string {
	if st == widget.Expanded {
		return "expanded"
	}
	return "minimized"
}
