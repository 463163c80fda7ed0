package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KaramelBytes/edascope/internal/analysis"
	"github.com/KaramelBytes/edascope/internal/chart"
	"github.com/KaramelBytes/edascope/internal/dataset"
	"github.com/KaramelBytes/edascope/internal/logging"
	"github.com/KaramelBytes/edascope/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

type ctxKey struct{}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Events  []session.Event `json:"events,omitempty"`
}

// SessionView describes a started session.
type SessionView struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Dataset      string          `json:"dataset"`
	Created      time.Time       `json:"created"`
	Columns      []string        `json:"columns"`
	Selected     string          `json:"selected,omitempty"`
	Stages       []session.Stage `json:"stages"`
	Report       string          `json:"report,omitempty"`
	ReportPath   string          `json:"report_path,omitempty"`
	PersistError string          `json:"persist_error,omitempty"`
	Events       []session.Event `json:"events,omitempty"`
	Charts       *ChartsView     `json:"charts,omitempty"`
}

// ChartsView is the result of exploring one column. Prompt is set, and
// Charts empty, when no live column was chosen.
type ChartsView struct {
	Column string        `json:"column,omitempty"`
	Prompt string        `json:"prompt,omitempty"`
	Charts []chart.Chart `json:"charts,omitempty"`
}

// CreateRequest is the optional body of POST /api/sessions.
type CreateRequest struct {
	// Column, when set, is explored right after the session starts.
	Column string `json:"column"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req CreateRequest
	if r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			s.respondError(w, r, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	rec := &session.Recorder{}
	sess, err := session.Start(r.Context(), s.base, rec)
	if err != nil {
		kind := dataset.Unknown
		var le *dataset.LoadError
		if errors.As(err, &le) {
			kind = le.Kind
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ErrorResponse{Kind: kind.String(), Message: session.FatalMessage(err), Events: rec.Events})
		return
	}
	if evicted, ok := s.store.Add(sess); ok {
		log.Info("session evicted", "session", evicted.String())
	}

	view := newSessionView(sess)
	view.Events = rec.Events
	if req.Column != "" {
		cv, err := explore(r.Context(), sess, req.Column)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "chart_error", err)
			return
		}
		view.Charts = cv
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, view)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	views := []SessionView{}
	for _, sess := range s.store.List() {
		v := newSessionView(sess)
		v.Report = ""
		views = append(views, v)
	}
	render.JSON(w, r, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newSessionView(sessionFrom(r.Context())))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep := sessionFrom(r.Context()).Report()
	switch r.URL.Query().Get("format") {
	case "", "text":
		render.PlainText(w, r, rep.Text())
	case "markdown":
		render.PlainText(w, r, rep.Markdown())
	case "json":
		render.JSON(w, r, reportView(rep))
	default:
		s.respondError(w, r, http.StatusBadRequest, "bad_request", errors.New("format must be text, markdown or json"))
	}
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	cv, err := explore(r.Context(), sessionFrom(r.Context()), r.URL.Query().Get("column"))
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "chart_error", err)
		return
	}
	render.JSON(w, r, cv)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.store.Delete(sess.ID)
	logging.FromContext(r.Context()).Info("session deleted", "session", sess.ID.String())
	render.NoContent(w, r)
}

// sessionCtx loads the session named by the URL into the request context.
func (s *Server) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			s.respondError(w, r, http.StatusNotFound, "not_found", errors.New("session not found"))
			return
		}
		sess, ok := s.store.Get(id)
		if !ok {
			s.respondError(w, r, http.StatusNotFound, "not_found", errors.New("session not found"))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	return ctx.Value(ctxKey{}).(*session.Session)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Kind: kind, Message: err.Error()})
}

func explore(ctx context.Context, sess *session.Session, column string) (*ChartsView, error) {
	rec := &session.Recorder{}
	charts, err := sess.Explore(ctx, column, rec)
	if err != nil {
		return nil, err
	}
	if prompts := rec.Texts(session.EventPrompt); len(prompts) > 0 {
		return &ChartsView{Prompt: prompts[0]}, nil
	}
	return &ChartsView{Column: column, Charts: charts}, nil
}

func newSessionView(sess *session.Session) SessionView {
	v := SessionView{
		ID:         sess.ID.String(),
		Title:      sess.Title(),
		Dataset:    sess.Path(),
		Created:    sess.Created,
		Columns:    sess.Columns(),
		Selected:   sess.Selected(),
		Stages:     sess.Stages(),
		Report:     sess.Report().Text(),
		ReportPath: sess.ReportPath(),
	}
	if err := sess.PersistErr(); err != nil {
		v.PersistError = err.Error()
	}
	return v
}

// reportView flattens a report into stat -> column -> value.
func reportView(rep *analysis.Report) map[string]any {
	stats := map[string]map[string]string{}
	for _, stat := range rep.Stats() {
		byCol := make(map[string]string, len(rep.Cols))
		for i, v := range rep.Values(stat) {
			byCol[rep.Cols[i].Name] = v
		}
		stats[stat] = byCol
	}
	return map[string]any{
		"name":        rep.Name,
		"rows":        rep.Rows,
		"categorical": rep.Categorical,
		"stats":       stats,
	}
}
