package store

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rcliao/memtier/internal/model"
)

// coerceState rebuilds a document whose fields do not all have the
// expected JSON types. Scalars are converted where the intent is clear;
// entries that are not objects are dropped.
func coerceState(root gjson.Result) *model.MemoryState {
	state := &model.MemoryState{}
	for _, name := range model.TierNames {
		items := root.Get(string(name))
		if !items.IsArray() {
			continue
		}
		tier := state.Tier(name)
		for _, item := range items.Array() {
			if e, ok := coerceEntry(item); ok {
				*tier = append(*tier, e)
			}
		}
	}

	meta := root.Get("metadata")
	if n, ok := coerceInt(meta.Get("version")); ok {
		state.Metadata.Version = n
	}
	state.Metadata.CreatedAt, _ = coerceString(meta.Get("created_at"))
	state.Metadata.LastUpdate, _ = coerceString(meta.Get("last_update"))
	if summary := meta.Get("summary"); summary.IsObject() {
		state.Metadata.Summary = map[string]string{}
		summary.ForEach(func(k, v gjson.Result) bool {
			if text, ok := coerceString(v); ok {
				state.Metadata.Summary[k.String()] = text
			}
			return true
		})
	}

	state.Normalize()
	return state
}

func coerceEntry(item gjson.Result) (model.Entry, bool) {
	if !item.IsObject() {
		return model.Entry{}, false
	}
	e := model.Entry{Importance: model.DefaultImportance}
	e.ID, _ = coerceString(item.Get("id"))
	e.Content, _ = coerceString(item.Get("content"))
	e.Category, _ = coerceString(item.Get("category"))
	e.ExpiresAt, _ = coerceString(item.Get("expires_at"))
	e.CreatedAt, _ = coerceString(item.Get("created_at"))
	e.UpdatedAt, _ = coerceString(item.Get("updated_at"))
	if n, ok := coerceInt(item.Get("importance")); ok {
		e.Importance = n
	}
	return e, true
}

func coerceString(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		return v.Raw, true
	case gjson.True, gjson.False:
		return v.Raw, true
	}
	return "", false
}

func coerceInt(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return int(v.Num), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
