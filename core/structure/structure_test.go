package structure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gaurav-prasanna/smartdoc/core"
	"github.com/gaurav-prasanna/smartdoc/core/model"
	"github.com/gaurav-prasanna/smartdoc/core/normalize"
)

func TestGeminiStructure(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		assert.Empty(t, r.URL.RawQuery)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		answer := `{"title":"Plan","sections":[{"type":"Bullet_List","content":"a|b"}]}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": answer}}}}},
		})
	}))
	defer srv.Close()

	g := NewGemini(srv.URL, "", "secret", zaptest.NewLogger(t))
	c, err := g.Structure(context.Background(), "some text", "fresh", core.ModePolish)
	require.NoError(t, err)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMimeType)
	require.Len(t, gotReq.Contents, 1)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "some text")
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "润色")

	d, err := normalize.New().Document(c)
	require.NoError(t, err)
	assert.Equal(t, "Plan", d.Title)
	assert.Equal(t, []string{"a", "b"}, d.Sections[0].Items)
}

func TestGeminiErrors(t *testing.T) {
	log := zaptest.NewLogger(t)

	_, err := NewGemini("http://unused", "", "", log).Structure(context.Background(), "x", "", core.ModeFix)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") == "bad" {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err = NewGemini(srv.URL, "", "bad", log).Structure(context.Background(), "x", "", core.ModeFix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = NewGemini(srv.URL, "", "good", log).Structure(context.Background(), "x", "", core.ModeFix)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiErrorsOmitKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	_, err := NewGemini(endpoint, "", "SECRET-KEY-123", zaptest.NewLogger(t)).
		Structure(context.Background(), "some text", "", core.ModeFix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling structuring service")
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestPromptPerMode(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range core.Modes {
		p := Prompt("body", "modern", m)
		assert.Contains(t, p, "body")
		assert.Contains(t, p, "modern")
		seen[p] = true
	}
	assert.Len(t, seen, len(core.Modes))
	assert.Equal(t, Prompt("x", "t", core.ModeFormatStrict), Prompt("x", "t", "bogus"))
}

func TestLocalStructure(t *testing.T) {
	input := strings.Join([]string{
		"Title: 季度计划",
		"Author: 张三",
		"",
		"## 目标",
		"",
		"提升效率",
		"并降低成本",
		"",
		"- 第一项",
		"- 第二项",
		"",
		"1. 步骤一",
		"2. 步骤二",
		"",
		"### 细节",
		"",
		"> 千里之行，始于足下",
		"",
		"[图片]",
	}, "\n")

	c, err := NewLocal().Structure(context.Background(), input, "fresh", core.ModeFormatStrict)
	require.NoError(t, err)
	d, err := normalize.New().Document(c)
	require.NoError(t, err)

	assert.Equal(t, "季度计划", d.Title)
	assert.Equal(t, "张三", d.Author)
	assert.Equal(t, []model.Kind{
		model.KindHeading, model.KindParagraph, model.KindBulletList,
		model.KindNumberedList, model.KindSubheading, model.KindQuote,
	}, d.Kinds())
	assert.Equal(t, "提升效率 并降低成本", d.Sections[1].Text)
	assert.Equal(t, []string{"第一项", "第二项"}, d.Sections[2].Items)
	assert.Equal(t, "千里之行，始于足下", d.Sections[5].Text)
}

func TestLocalRoundTripsPlainText(t *testing.T) {
	d := &model.Document{
		Title: "Doc",
		Sections: []model.Section{
			model.NewSection(model.KindParagraph, model.TextContent("Hello")),
			model.NewSection(model.KindBulletList, model.ItemsContent("a", "b")),
		},
	}
	c, err := NewLocal().Structure(context.Background(), d.PlainText(), "", core.ModeFormatStrict)
	require.NoError(t, err)
	out, err := normalize.New().Document(c)
	require.NoError(t, err)
	assert.Equal(t, d.Title, out.Title)
	assert.Equal(t, d.Kinds(), out.Kinds())
}

func TestLocalHeadingBecomesTitle(t *testing.T) {
	c, err := NewLocal().Structure(context.Background(), "# Main\n\n# Second\n", "", core.ModeFormatStrict)
	require.NoError(t, err)
	assert.Equal(t, "Main", c.Title)
	require.Len(t, c.Sections, 1)
	assert.Equal(t, "heading", c.Sections[0].Type)
}
