// Package server serves the web chat: a chat view and a history view over
// the live session store, plus a small JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sonnes/parley/chat"
	"github.com/sonnes/parley/keywords"
	htmlrender "github.com/sonnes/parley/render/html"
	jsonrender "github.com/sonnes/parley/render/json"
	"github.com/sonnes/parley/reply"
)

const busyNotice = "A reply is already pending. Wait for it before sending another message."

// Server serves the chat UI over HTTP.
type Server struct {
	chat     *chat.Controller
	keywords *keywords.Set
	html     *htmlrender.Renderer
	json     *jsonrender.Renderer
	router   *chi.Mux
	port     int
	probe    func(context.Context) error
	logger   *log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBackendProbe reports backend reachability on /health.
func WithBackendProbe(fn func(context.Context) error) Option {
	return func(s *Server) { s.probe = fn }
}

// New builds the router.
func New(c *chat.Controller, kw *keywords.Set, opts ...Option) *Server {
	s := &Server{
		chat:     c,
		keywords: kw,
		html:     htmlrender.New(),
		json:     &jsonrender.Renderer{},
		port:     8080,
		logger:   log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.keywords == nil {
		s.keywords = keywords.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/", s.chatPage)
	router.Get("/history", s.historyPage)
	router.Post("/send", s.send)
	router.Post("/new", s.newSession)
	router.Post("/conversations/{id}/select", s.selectConversation)
	router.Post("/conversations/{id}/delete", s.deleteConversation)
	router.Post("/keywords/{key}/toggle", s.toggleKeyword)

	router.Get("/health", s.health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/conversations", s.listConversations)
		r.Get("/conversations/{id}", s.getConversation)
		r.Delete("/conversations/{id}", s.apiDeleteConversation)
		r.Post("/messages", s.apiSend)
		r.Get("/keywords", s.listKeywords)
	})

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{Addr: addr, Handler: s.router}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", "http://localhost"+addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) chatPage(w http.ResponseWriter, r *http.Request) {
	s.renderChat(w, http.StatusOK, "")
}

func (s *Server) renderChat(w http.ResponseWriter, status int, notice string) {
	activeID, lines := s.chat.Active()
	page := htmlrender.ChatPage{
		ActiveID:  activeID,
		Lines:     lines,
		Sidebar:   s.chat.Summaries(),
		Keywords:  s.keywords.List(),
		Templates: keywords.Templates,
		Pending:   s.chat.Busy(),
		Notice:    notice,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.html.RenderChat(w, page); err != nil {
		s.logger.Error("render chat", "err", err)
	}
}

func (s *Server) historyPage(w http.ResponseWriter, r *http.Request) {
	activeID, _ := s.chat.Active()
	page := htmlrender.HistoryPage{
		ActiveID:      activeID,
		Conversations: s.chat.Summaries(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.html.RenderHistory(w, page); err != nil {
		s.logger.Error("render history", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) send(w http.ResponseWriter, r *http.Request) {
	_, err := s.chat.Submit(r.Context(), r.FormValue("message"))
	switch {
	case errors.Is(err, reply.ErrBusy):
		s.renderChat(w, http.StatusConflict, busyNotice)
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		// nothing to send
	case err != nil:
		s.logger.Error("send", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) newSession(w http.ResponseWriter, r *http.Request) {
	s.chat.NewSession()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) selectConversation(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Select(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Delete(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, back(r), http.StatusSeeOther)
}

func (s *Server) toggleKeyword(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.keywords.Toggle(chi.URLParam(r, "key")); !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.probe != nil {
		if err := s.probe(r.Context()); err != nil {
			body["backend"] = err.Error()
		} else {
			body["backend"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.json.RenderList(w, s.chat.Summaries()); err != nil {
		s.logger.Error("render list", "err", err)
	}
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	c, ok := s.chat.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "conversation not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := s.json.Render(w, &c); err != nil {
		s.logger.Error("render conversation", "id", c.ID, "err", err)
	}
}

func (s *Server) apiDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if !s.chat.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "conversation not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Success        bool   `json:"success"`
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
}

func (s *Server) apiSend(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	out, err := s.chat.Submit(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, reply.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Success:        out.OK,
		ConversationID: out.ConversationID,
		Response:       out.Reply,
	})
}

func (s *Server) listKeywords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.keywords.List())
}

// back returns the page a form was posted from, limited to the two views.
func back(r *http.Request) string {
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == "/history" {
		return "/history"
	}
	return "/"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
