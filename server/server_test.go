package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/language"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/docx"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
	"github.com/gaurav-prasanna/smartdoc/core/paginate"
	"github.com/gaurav-prasanna/smartdoc/core/session"
	"github.com/gaurav-prasanna/smartdoc/core/store"
	"github.com/gaurav-prasanna/smartdoc/core/structure"
)

type fixedStructurer struct{ gate chan struct{} }

func (f fixedStructurer) Structure(ctx context.Context, _, _ string, _ core.Mode) (*normalize.Candidate, error) {
	if f.gate != nil {
		<-f.gate
	}
	return &normalize.Candidate{
		Title:    "Formatted",
		Sections: []normalize.RawSection{{Type: "heading", Content: "One"}, {Type: "paragraph", Content: "Two"}},
	}, nil
}

func newTestServer(t *testing.T, st core.Structurer, db *store.Store) (*Server, *httptest.Server) {
	t.Helper()
	log := zaptest.NewLogger(t)
	s := New(Options{
		Session: session.Options{
			Structurer: st,
			Projectors: session.StandardProjectors(session.ProjectorConfig{Log: log}),
			Lang:       language.English,
		},
		Store:    db,
		Registry: prom.NewRegistry(),
		Log:      log,
	})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func create(t *testing.T, ts *httptest.Server, doc *model.Document) session.State {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/sessions", doc)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[session.State](t, resp)
}

func sample() *model.Document {
	return &model.Document{
		Title: "Quarterly Report",
		Sections: []model.Section{
			model.NewSection(model.KindHeading, model.TextContent("Intro")),
			model.NewSection(model.KindParagraph, model.TextContent("Body text")),
			model.NewSection(model.KindBulletList, model.ItemsContent("a", "b")),
		},
	}
}

func TestIndexRedirectsToCanvas(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Request.URL.Path, "/canvas")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `id="printable-root"`)
	assert.Contains(t, string(body), `data-endpoint="/sessions/`)
}

func TestEditingFlow(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	st := create(t, ts, sample())
	base := ts.URL + "/sessions/" + st.ID
	assert.Equal(t, "Quarterly Report", st.Document.Title)

	resp := do(t, http.MethodPost, base+"/height", map[string]float64{"height": 2500})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decodeBody[paginate.Layout](t, resp).PageCount())

	resp = do(t, http.MethodPost, base+"/fields/subtitle", map[string]string{"value": "Q3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Q3", decodeBody[model.Document](t, resp).Subtitle)

	resp = do(t, http.MethodPost, base+"/fields/body", map[string]string{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/sections/2", map[string][]string{"items": {"x", "y", "z"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"x", "y", "z"}, decodeBody[model.Document](t, resp).Sections[2].Items)

	resp = do(t, http.MethodPut, base+"/sections/7", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/focus", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, base+"/images", map[string]string{"stock": "books"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ins := decodeBody[struct {
		Index    int            `json:"index"`
		Document model.Document `json:"document"`
	}](t, resp)
	assert.Equal(t, 1, ins.Index)
	assert.Equal(t, model.KindImage, ins.Document.Sections[1].Kind)

	resp = do(t, http.MethodDelete, base+"/sections/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[model.Document](t, resp).Sections, 3)

	resp = do(t, http.MethodPut, base+"/theme", map[string]string{"id": "official"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "official", decodeBody[session.State](t, resp).Theme)

	resp = do(t, http.MethodPut, base+"/background", map[string]string{"id": "neon"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ps := paginate.DefaultSettings()
	ps.Footer.Enabled = true
	resp = do(t, http.MethodPut, base+"/settings", ps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	l := decodeBody[paginate.Layout](t, resp)
	require.NotNil(t, l.Pages[2].Footer)
	assert.Equal(t, "3", l.Pages[2].Footer.Center)

	resp = do(t, http.MethodPut, base+"/zoom", map[string]float64{"zoom": 0.1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.3, decodeBody[map[string]float64](t, resp)["zoom"])

	resp = do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "新文档", decodeBody[model.Document](t, resp).Title)
}

func TestExportDownload(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)
	st := create(t, ts, sample())
	base := ts.URL + "/sessions/" + st.ID

	resp := do(t, http.MethodGet, base+"/export/docx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, session.FormatDOCX.ContentType(), resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Quarterly Report.docx")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	resp = do(t, http.MethodGet, base+"/export/html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(data), `contenteditable="true"`)

	resp = do(t, http.MethodGet, base+"/export/epub", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// no capturer configured
	resp = do(t, http.MethodGet, base+"/export/png", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Image generation failed, please retry", decodeBody[errorBody](t, resp).Message)
}

func TestServerImagesStayOffDisk(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	secret := filepath.Join(t.TempDir(), "secret.png")
	require.NoError(t, os.WriteFile(secret, buf.Bytes(), 0o644))
	inline := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	_, ts := newTestServer(t, nil, nil)
	images := func(ref string) int {
		st := create(t, ts, sample())
		base := ts.URL + "/sessions/" + st.ID
		resp := do(t, http.MethodPost, base+"/images", map[string]string{"url": ref})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodGet, base+"/canvas", nil)
		markup, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(markup), secret)

		resp = do(t, http.MethodGet, base+"/export/docx", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		paras, err := docx.Inspect(data)
		require.NoError(t, err)
		n := 0
		for _, p := range paras {
			n += p.Images
		}
		return n
	}

	assert.Equal(t, 1, images(inline))
	assert.Equal(t, 0, images(secret))
	assert.Equal(t, 0, images("file://"+secret))
}

func TestFormat(t *testing.T) {
	_, ts := newTestServer(t, fixedStructurer{}, nil)
	st := create(t, ts, sample())
	base := ts.URL + "/sessions/" + st.ID

	resp := do(t, http.MethodPost, base+"/format", map[string]string{"mode": "polish"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[struct {
		Document model.Document `json:"document"`
		Message  string         `json:"message"`
	}](t, resp)
	assert.Equal(t, "Formatted", out.Document.Title)
	assert.Equal(t, "Polishing complete!", out.Message)

	resp = do(t, http.MethodPost, base+"/format", map[string]string{"mode": "translate"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	empty := create(t, ts, &model.Document{Sections: []model.Section{model.NewSection(model.KindParagraph, model.TextContent(""))}})
	resp = do(t, http.MethodPost, ts.URL+"/sessions/"+empty.ID+"/format", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Not enough content to process", decodeBody[errorBody](t, resp).Message)
}

func TestFormatBusy(t *testing.T) {
	gate := make(chan struct{})
	s, ts := newTestServer(t, fixedStructurer{gate: gate}, nil)
	st := create(t, ts, sample())
	base := ts.URL + "/sessions/" + st.ID

	done := make(chan int, 1)
	go func() {
		resp, err := http.Post(base+"/format", "application/json", strings.NewReader(`{}`))
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	sess, err := s.Session(context.Background(), st.ID)
	require.NoError(t, err)
	require.Eventually(t, sess.Busy, 2*time.Second, time.Millisecond)

	resp := do(t, http.MethodGet, base+"/export/md", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = do(t, http.MethodPut, base+"/sections/1", map[string]string{"text": "edited during format"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = do(t, http.MethodPost, base+"/fields/author", map[string]string{"value": "someone"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = do(t, http.MethodPost, base+"/reset", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(gate)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Empty(t, sess.Document().Author)
}

func TestSessionsPersist(t *testing.T) {
	db, err := store.Open(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer db.Close()

	_, ts := newTestServer(t, nil, db)
	st := create(t, ts, sample())
	do(t, http.MethodPost, ts.URL+"/sessions/"+st.ID+"/fields/title", map[string]string{"value": "Saved"})

	// a second server sharing the store restores the session on demand
	_, ts2 := newTestServer(t, nil, db)
	resp := do(t, http.MethodGet, ts2.URL+"/sessions/"+st.ID+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Saved", decodeBody[session.State](t, resp).Document.Title)

	resp = do(t, http.MethodGet, ts2.URL+"/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]store.Entry](t, resp), 1)

	resp = do(t, http.MethodDelete, ts2.URL+"/sessions/"+st.ID+"/", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, http.MethodGet, ts2.URL+"/sessions/"+st.ID+"/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLocalStructurerOverHTTP(t *testing.T) {
	_, ts := newTestServer(t, structure.NewLocal(), nil)
	st := create(t, ts, sample())
	resp := do(t, http.MethodPost, ts.URL+"/sessions/"+st.ID+"/format", map[string]string{"mode": "format-strict"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestThemesAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil, nil)

	resp := do(t, http.MethodGet, ts.URL+"/themes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat := decodeBody[catalogView](t, resp)
	assert.Len(t, cat.Themes, 9)
	assert.Contains(t, cat.Formats, session.FormatDOCX)

	resp = do(t, http.MethodGet, ts.URL+"/sessions/missing/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `smartdoc_http_requests_total{code="200",method="GET",route="/themes"} 1`)
	assert.Contains(t, string(body), "smartdoc_sessions_active 0")
}
