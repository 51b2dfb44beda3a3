package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/session"
	"github.com/gaurav-prasanna/smartdoc/core/store"
	"github.com/gaurav-prasanna/smartdoc/core/theme"
)

const maxBody = 16 << 20

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrInputTooShort):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrIndexOutOfRange),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, session.ErrUnknownTheme),
		errors.Is(err, session.ErrUnknownFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err as JSON. Failures of format and export also carry the
// localized notice shown to the user.
func (s *Server) fail(w http.ResponseWriter, sess *session.Session, err error, f session.Format) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	if sess != nil && (status >= http.StatusInternalServerError || status == http.StatusConflict ||
		status == http.StatusUnprocessableEntity || f != "") {
		body.Message = session.Describe(err, f, sess.Lang())
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.Create(r.Context())
	http.Redirect(w, r, "/sessions/"+sess.ID()+"/canvas", http.StatusSeeOther)
}

type catalogView struct {
	Themes      []theme.Theme      `json:"themes"`
	Backgrounds []theme.Background `json:"backgrounds"`
	StockImages []theme.StockImage `json:"stockImages"`
	Formats     []session.Format   `json:"formats"`
	Modes       []core.Mode        `json:"modes"`
}

func (s *Server) handleThemes(w http.ResponseWriter, _ *http.Request) {
	cat := s.opts.Session.Catalog
	writeJSON(w, http.StatusOK, catalogView{
		Themes:      cat.Themes,
		Backgrounds: cat.Backgrounds,
		StockImages: cat.StockImages,
		Formats:     session.Formats,
		Modes:       core.Modes,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store != nil {
		entries, err := s.opts.Store.List(r.Context())
		if err != nil {
			s.fail(w, nil, err, "")
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}
	s.mu.Lock()
	entries := make([]store.Entry, 0, len(s.sessions))
	for id, sess := range s.sessions {
		entries = append(entries, store.Entry{ID: id, Title: sess.Document().Title})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var doc *model.Document
	if err := decode(w, r, &doc); err != nil {
		s.fail(w, nil, err, "")
		return
	}
	sess := s.Create(r.Context())
	if doc != nil && doc.Sections != nil {
		if err := sess.SetDocument(doc); err != nil {
			s.fail(w, sess, err, "")
			return
		}
		s.persist(r.Context(), sess)
	}
	writeJSON(w, http.StatusCreated, sess.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).State())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.remove(r.Context(), sessionFrom(r).ID()); err != nil {
		s.fail(w, nil, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	markup, err := sess.Canvas(r.Context(), "/sessions/"+sess.ID())
	if err != nil {
		s.fail(w, sess, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(markup)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var doc model.Document
	if err := decode(w, r, &doc); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if doc.Sections == nil {
		s.fail(w, sess, fmt.Errorf("%w: document has no sections", errBadRequest), "")
		return
	}
	if err := sess.SetDocument(&doc); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Document())
}

func (s *Server) handleHeight(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Height float64 `json:"height"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	l := sess.ObserveHeight(req.Height)
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Value string `json:"value"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if err := sess.UpdateField(model.Field(chi.URLParam(r, "name")), req.Value); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Document())
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Index *int `json:"index"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	f := model.NoFocus
	if req.Index != nil {
		f = model.Focus(*req.Index)
	}
	if err := sess.SetFocus(f); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.Focus{"focus": sess.Focus()})
}

func sectionIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, fmt.Errorf("%w: section index %q", errBadRequest, chi.URLParam(r, "index"))
	}
	return i, nil
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	i, err := sectionIndex(r)
	if err != nil {
		s.fail(w, sess, err, "")
		return
	}
	var req struct {
		Text  string   `json:"text"`
		Items []string `json:"items"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	c := model.TextContent(req.Text)
	if req.Items != nil {
		c = model.ItemsContent(req.Items...)
	}
	if err := sess.UpdateSection(i, c); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Document())
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	i, err := sectionIndex(r)
	if err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if err := sess.DeleteSection(i); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Document())
}

func (s *Server) handleInsertImage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		URL   string `json:"url"`
		Alt   string `json:"alt"`
		Stock string `json:"stock"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	var (
		at  int
		err error
	)
	switch {
	case req.Stock != "":
		at, err = sess.InsertStockImage(req.Stock)
		if err != nil && !errors.Is(err, session.ErrBusy) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
	case req.URL != "":
		at, err = sess.InsertImage(req.URL, req.Alt)
	default:
		err = fmt.Errorf("%w: url or stock is required", errBadRequest)
	}
	if err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]any{"index": at, "document": sess.Document()})
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Mode core.Mode `json:"mode"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if req.Mode == "" {
		req.Mode = core.ModeFormatStrict
	}
	if !req.Mode.Valid() {
		s.fail(w, sess, fmt.Errorf("%w: unknown mode %q", errBadRequest, req.Mode), "")
		return
	}
	start := time.Now()
	doc, err := sess.Format(r.Context(), req.Mode)
	s.metrics.ObserveFormat(string(req.Mode), time.Since(start), err)
	if err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"message":  session.Done(req.Mode, sess.Lang()),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	name := chi.URLParam(r, "format")
	f, ok := session.ParseFormat(name)
	if !ok {
		s.fail(w, sess, fmt.Errorf("%w: %s", session.ErrUnknownFormat, name), "")
		return
	}
	start := time.Now()
	a, err := sess.Export(r.Context(), f)
	s.metrics.ObserveExport(string(f), time.Since(start), err)
	if err != nil {
		s.fail(w, sess, err, f)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.Write(a.Data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Reset(); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Document())
}

type idRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	s.handleSelect(w, r, (*session.Session).SetTheme)
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	s.handleSelect(w, r, (*session.Session).SetBackground)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request, set func(*session.Session, string) error) {
	sess := sessionFrom(r)
	var req idRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if err := set(sess, req.ID); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var ps paginate.Settings
	if err := decode(w, r, &ps); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	if err := sess.SetSettings(ps); err != nil {
		s.fail(w, sess, fmt.Errorf("%w: %v", errBadRequest, err), "")
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, sess.Layout())
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Zoom float64 `json:"zoom"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, sess, err, "")
		return
	}
	sess.SetZoom(req.Zoom)
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, map[string]float64{"zoom": sess.Zoom()})
}
