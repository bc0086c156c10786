package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Web Design Consultation", PlainText("<p>Web Design Consultation</p>"))
	assert.Equal(t, "Fish & Chips", PlainText("<p><strong>Fish</strong> &amp; Chips</p>"))
	assert.Equal(t, "plain", PlainText("plain"))
	assert.Equal(t, "ab", PlainText("<p>a</p><script>alert(1)</script><p>b</p>"))
	assert.Equal(t, "", PlainText(""))
}

func TestMatchByNameAfterStripping(t *testing.T) {
	items := []Item{
		{ID: "s1", Kind: KindService, Name: "Logo Design"},
		{ID: "s2", Kind: KindService, Name: "Web Design Consultation"},
	}
	got, ok := Match("<p>Web Design Consultation</p>", items)
	require.True(t, ok)
	assert.Equal(t, "s2", got.ID)

	got, ok = Match("  <p> Logo Design </p> ", items)
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
}

func TestMatchByDescription(t *testing.T) {
	items := []Item{
		{ID: "p1", Kind: KindPart, Name: "HDMI-2M", Description: "<p>HDMI cable, 2 metres</p>"},
	}
	got, ok := Match("HDMI cable, 2 metres", items)
	require.True(t, ok)
	assert.Equal(t, "p1", got.ID)
}

func TestMatchNone(t *testing.T) {
	items := []Item{{ID: "s1", Name: "Logo Design", Description: ""}}
	_, ok := Match("<p></p>", items)
	assert.False(t, ok)
	_, ok = Match("Something custom", items)
	assert.False(t, ok)
	_, ok = Match("", []Item{{ID: "blank"}})
	assert.False(t, ok)
}

func TestMatchReturnsFirst(t *testing.T) {
	items := []Item{
		{ID: "s1", Kind: KindService, Name: "Install"},
		{ID: "p1", Kind: KindPart, Name: "Install"},
	}
	got, ok := Match("Install", items)
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID)
}

func TestDisplayName(t *testing.T) {
	item := Item{Name: "Logo Design"}
	assert.Equal(t, "Logo Design", DisplayName("<p>whatever</p>", &item))
	assert.Equal(t, "Replace kitchen tap", DisplayName("<p>Replace kitchen tap and fittings</p>", nil))
	assert.Equal(t, "Line Item", DisplayName("<br>", nil))
}

func TestDraftFromItem(t *testing.T) {
	d := DraftFromItem(Item{Name: "Logo Design", Description: "<p>Three concepts</p>", Price: 450})
	assert.Equal(t, LineDraft{Description: "<p>Three concepts</p>", Quantity: 1, Price: 450}, d)

	d = DraftFromItem(Item{Name: "Hourly labour", Price: 80})
	assert.Equal(t, "Hourly labour", d.Description)
}
