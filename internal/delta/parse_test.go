package delta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memtier/internal/model"
)

func TestParseStrictDocument(t *testing.T) {
	d, err := Parse(`{
		"summary": {"long_term_highlights": "likes tea"},
		"long_term": {
			"upsert": [{"id": "lt-1", "content": " likes tea ", "category": "preference", "importance": 4, "expires_at": "2025-01-01"}],
			"delete": ["lt-0"]
		}
	}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"long_term_highlights": "likes tea"}, d.Summary)
	lt := d.For(model.LongTerm)
	require.Len(t, lt.Upsert, 1)
	u := lt.Upsert[0]
	assert.Equal(t, "lt-1", u.ID)
	assert.Equal(t, " likes tea ", u.Content)
	assert.Equal(t, "preference", u.Category)
	require.NotNil(t, u.Importance)
	assert.Equal(t, 4, *u.Importance)
	assert.Equal(t, "2025-01-01", u.ExpiresAt)
	assert.Equal(t, []string{"lt-0"}, lt.Delete)
	assert.True(t, d.For(model.ShortTerm).Empty())
}

func TestParseLenientRepairs(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"trailing commas", `{"long_term": {"upsert": [{"id": "a", "content": "x",},], "delete": [],},}`},
		{"unquoted keys", `{long_term: {upsert: [{id: "a", content: "x"}], delete: []}}`},
		{"single quotes", `{'long_term': {'upsert': [{'id': 'a', 'content': 'x'}]}}`},
		{"smart quotes", `{“long_term”: {“upsert”: [{“id”: “a”, “content”: “x”}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			up := d.For(model.LongTerm).Upsert
			require.Len(t, up, 1)
			assert.Equal(t, "a", up[0].ID)
			assert.Equal(t, "x", up[0].Content)
		})
	}
}

func TestParseKeepsTypographicQuotesInContent(t *testing.T) {
	d, err := Parse(`{"core_memory": {"upsert": [{"id": "c1", "content": "他说“你好”"}]}}`)
	require.NoError(t, err)
	assert.Equal(t, "他说“你好”", d.For(model.CoreMemory).Upsert[0].Content)
}

func TestParseFailure(t *testing.T) {
	_, err := Parse(`{"long_term": {"upsert": [`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeltaUnparseable))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Error(t, pe.Lenient)
	assert.Error(t, pe.Strict)
}

func TestParseCoercesMalformedShapes(t *testing.T) {
	d, err := Parse(`{
		"summary": "not an object",
		"core_memory": {"upsert": "oops", "delete": 7},
		"long_term": {"upsert": [42, {"content": ""}, {"content": "   "}, {"content": 5}, {"id": 9, "content": "ok", "importance": "5"}], "delete": ["x", {}, null, 12]},
		"medium_term": "nope",
		"short_term": {"upsert": [{"content": "task", "importance": "high"}]}
	}`)
	require.NoError(t, err)

	assert.Nil(t, d.Summary)
	assert.True(t, d.For(model.CoreMemory).Empty())
	assert.True(t, d.For(model.MediumTerm).Empty())

	lt := d.For(model.LongTerm)
	require.Len(t, lt.Upsert, 1)
	assert.Equal(t, "9", lt.Upsert[0].ID)
	require.NotNil(t, lt.Upsert[0].Importance)
	assert.Equal(t, 5, *lt.Upsert[0].Importance)
	assert.Equal(t, []string{"x", "12"}, lt.Delete)

	st := d.For(model.ShortTerm)
	require.Len(t, st.Upsert, 1)
	assert.Nil(t, st.Upsert[0].Importance)

	// 4 bad upserts + 2 bad deletes
	assert.Equal(t, 6, d.Skipped)
}

func TestParseNonObjectDocument(t *testing.T) {
	d, err := Parse(`[1, 2, 3]`)
	require.NoError(t, err)
	for _, name := range model.TierNames {
		assert.True(t, d.For(name).Empty())
	}
}

func TestParseSummaryScalars(t *testing.T) {
	d, err := Parse(`{"summary": {"a": "text", "b": 3, "c": {"x": 1}, "d": null}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "text", "b": "3"}, d.Summary)
}

func TestParseTrimsDeleteIDs(t *testing.T) {
	d, err := Parse(`{"long_term": {"delete": [" lt-1 ", "   ", "\tlt-2"]}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"lt-1", "lt-2"}, d.For(model.LongTerm).Delete)
	assert.Equal(t, 1, d.Skipped)
}

func TestParseKeepsNumberLiterals(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"strict", `{"long_term": {"upsert": [{"id": 12345678901234567891, "content": "x"}], "delete": [98765432109876543210]}}`},
		{"lenient", `{long_term: {upsert: [{id: 12345678901234567891, content: "x",}], delete: [98765432109876543210,]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			lt := d.For(model.LongTerm)
			require.Len(t, lt.Upsert, 1)
			assert.Equal(t, "12345678901234567891", lt.Upsert[0].ID)
			assert.Equal(t, []string{"98765432109876543210"}, lt.Delete)
		})
	}
}

func TestParseLenientNumberForms(t *testing.T) {
	d, err := Parse(`{short_term: {upsert: [{id: 0x1F, content: "a", importance: +4}, {content: "b", importance: NaN}]}}`)
	require.NoError(t, err)

	st := d.For(model.ShortTerm)
	require.Len(t, st.Upsert, 2)
	assert.Equal(t, "31", st.Upsert[0].ID)
	require.NotNil(t, st.Upsert[0].Importance)
	assert.Equal(t, 4, *st.Upsert[0].Importance)
	assert.Nil(t, st.Upsert[1].Importance)
}
