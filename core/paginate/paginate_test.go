package paginate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var fixedNow = func() time.Time { return time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC) }

func TestPageHeight(t *testing.T) {
	assert.Equal(t, 1123.0, PageHeightPx)
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		height float64
		want   int
	}{
		{0, 1},
		{-5, 1},
		{250, 1},
		{1000, 1},
		{1001, 2},
		{2600, 3},
		{3000, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageCount(tt.height, 1000), "height %v", tt.height)
	}
}

func TestMirroredHeaderOnPageFour(t *testing.T) {
	s := Settings{
		Header:        HeaderFooterConfig{Enabled: true, Left: SlotPageNumber, Right: SlotTitle},
		MirrorMargins: true,
	}
	r := Resolver{Title: "Q3 Plan", Now: fixedNow, Lang: language.English}

	l := Compute(3500, 1000, s, r)
	require.Equal(t, 4, l.PageCount())

	p4 := l.Pages[3].Header
	require.NotNil(t, p4)
	assert.Equal(t, "Q3 Plan", p4.Left)
	assert.Equal(t, "4", p4.Right)

	p3 := l.Pages[2].Header
	assert.Equal(t, "3", p3.Left)
	assert.Equal(t, "Q3 Plan", p3.Right)
}

func TestOddPagesUnaffectedByMirror(t *testing.T) {
	cfg := HeaderFooterConfig{Enabled: true, Left: SlotTitle, Center: SlotDate, Right: SlotCustom, CustomText: "Draft"}
	r := Resolver{Title: "T", Now: fixedNow, Lang: language.SimplifiedChinese}
	plain := Compute(5000, 1000, Settings{Footer: cfg}, r)
	mirror := Compute(5000, 1000, Settings{Footer: cfg, MirrorMargins: true}, r)
	for i := range plain.Pages {
		if plain.Pages[i].Number%2 == 1 {
			assert.Equal(t, plain.Pages[i].Footer, mirror.Pages[i].Footer)
		} else {
			assert.Equal(t, plain.Pages[i].Footer.Left, mirror.Pages[i].Footer.Right)
		}
	}
	assert.Equal(t, "2024/3/5", plain.Pages[0].Footer.Center)
	assert.Equal(t, "Draft", plain.Pages[0].Footer.Right)
}

func TestHideOnFirstPage(t *testing.T) {
	s := Settings{
		Header:          HeaderFooterConfig{Enabled: true, Center: SlotPageNumber},
		Footer:          HeaderFooterConfig{Enabled: false, Center: SlotPageNumber},
		HideOnFirstPage: true,
	}
	l := Compute(2500, 1000, s, Resolver{})
	assert.Nil(t, l.Pages[0].Header)
	require.NotNil(t, l.Pages[1].Header)
	assert.Equal(t, "2", l.Pages[1].Header.Center)
	for _, p := range l.Pages {
		assert.Nil(t, p.Footer)
	}
	assert.Equal(t, 2000.0, l.Pages[2].TopPx)
}

func TestEngineObserve(t *testing.T) {
	s := Settings{Footer: HeaderFooterConfig{Enabled: true, Center: SlotPageNumber}}
	e := NewEngine(1000, s, Resolver{})
	assert.Equal(t, 1, e.Layout().PageCount())

	var notified []int
	e.Subscribe(func(l Layout) { notified = append(notified, l.PageCount()) })

	e.Observe(2600)
	e.Observe(2600)
	assert.Equal(t, []int{3}, notified)

	// readings taken mid-reflow keep the last layout
	e.Observe(0)
	e.Observe(-5)
	assert.Equal(t, 3, e.Layout().PageCount())
	assert.Equal(t, []int{3}, notified)

	e.Observe(900)
	assert.Equal(t, []int{3, 1}, notified)
}

func TestEngineSettingsAndTitle(t *testing.T) {
	e := NewEngine(0, Settings{}, Resolver{})
	assert.Equal(t, PageHeightPx, e.Layout().PageHeightPx)

	calls := 0
	e.Subscribe(func(Layout) { calls++ })

	e.SetTitle("ignored while disabled")
	assert.Equal(t, 0, calls)

	e.SetSettings(Settings{Header: HeaderFooterConfig{Enabled: true, Left: SlotTitle}})
	e.SetTitle("Report")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Report", e.Layout().Pages[0].Header.Left)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	bad := DefaultSettings()
	bad.Footer.Right = "weather"
	assert.Error(t, bad.Validate())
}
