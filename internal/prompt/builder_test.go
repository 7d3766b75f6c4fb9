package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memtier/internal/model"
)

func testState() *model.MemoryState {
	s := model.NewState(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	s.CoreMemory = model.Tier{
		{ID: "core-1", Content: "名字叫小明", Category: "profile", Importance: 5, UpdatedAt: "2024-05-01T00:00:00Z"},
	}
	s.LongTerm = model.Tier{
		{ID: "lt-1", Content: "likes tea", Category: "preference", Importance: 3, UpdatedAt: "2024-05-01T00:00:00Z"},
		{ID: "lt-2", Content: "works remotely", Category: "fact", Importance: 3, UpdatedAt: "2024-05-02T00:00:00Z"},
	}
	s.ShortTerm = model.Tier{
		{ID: "st-1", Content: "book dentist", Category: "task", Importance: 1, ExpiresAt: "2024-05-10", UpdatedAt: "2024-05-03T00:00:00Z"},
	}
	s.Metadata.Summary["long_term_highlights"] = "tea drinker"
	return s
}

func TestBuildRendersAllTiers(t *testing.T) {
	p, err := New(0).Build(testState(), Input{Persona: "  helpful  "})
	require.NoError(t, err)

	assert.Equal(t, "helpful", p.System)
	assert.Equal(t, DefaultBudget, p.Budget)
	assert.Equal(t, 4, p.Packed)
	assert.Zero(t, p.Omitted)

	assert.True(t, strings.HasPrefix(p.Text, DefaultInstructions))
	for _, want := range []string{
		"## 核心记忆 (core_memory)",
		"## 中期记忆 (medium_term)\n(空)",
		"- [lt-1] likes tea (category=preference, importance=3)",
		"expires_at=2024-05-10",
		"- long_term_highlights: tea drinker",
		`"short_term": {"upsert": [], "delete": []}`,
	} {
		assert.Contains(t, p.Text, want)
	}
}

func TestBuildCustomInstructions(t *testing.T) {
	p, err := New(0).Build(model.NewState(time.Now()), Input{Instructions: "summarize"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.Text, "summarize\n"))
	assert.NotContains(t, p.Text, "# 摘要")
}

func TestPackOrdersByImportanceThenRecency(t *testing.T) {
	lines, used, omitted := pack(testState(), 1000)
	require.Len(t, lines, 4)
	assert.Zero(t, omitted)

	var ids []string
	for _, l := range lines {
		ids = append(ids, l.Entry.ID)
	}
	assert.Equal(t, []string{"core-1", "lt-2", "lt-1", "st-1"}, ids)
	assert.Equal(t, 5+9+14+12, used)
}

func TestPackRespectsBudget(t *testing.T) {
	s := model.NewState(time.Now())
	s.LongTerm = model.Tier{
		{ID: "big", Content: strings.Repeat("长", 500), Importance: 3},
		{ID: "small", Content: "short", Importance: 5},
		{ID: "tail", Content: "never reached", Importance: 1},
	}

	lines, used, omitted := pack(s, 205)
	require.Len(t, lines, 2)
	assert.Equal(t, "small", lines[0].Entry.ID)

	ex := lines[1]
	assert.Equal(t, "big", ex.Entry.ID)
	assert.True(t, ex.Excerpt)
	assert.Equal(t, strings.Repeat("长", 200)+"...", ex.Entry.Content)
	assert.Equal(t, 205, used)
	assert.Equal(t, 1, omitted)
}

func TestPackSkipsExcerptWhenLittleRoom(t *testing.T) {
	s := model.NewState(time.Now())
	s.LongTerm = model.Tier{
		{ID: "a", Content: strings.Repeat("x", 60), Importance: 5},
		{ID: "b", Content: strings.Repeat("y", 60), Importance: 4},
	}

	lines, used, omitted := pack(s, 100)
	require.Len(t, lines, 1)
	assert.Equal(t, 60, used)
	assert.Equal(t, 1, omitted)

	p, err := New(100).Build(s, Input{})
	require.NoError(t, err)
	assert.Contains(t, p.Text, "另有 1 条记忆因篇幅省略。")
}

func TestBuildDoesNotMutateState(t *testing.T) {
	s := model.NewState(time.Now())
	long := strings.Repeat("z", 300)
	s.LongTerm = model.Tier{{ID: "a", Content: long, Importance: 3}}

	_, err := New(150).Build(s, Input{})
	require.NoError(t, err)
	assert.Equal(t, long, s.LongTerm[0].Content)
}
