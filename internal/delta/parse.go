package delta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/titanous/json5"

	"github.com/rcliao/memtier/internal/model"
)

// ErrDeltaUnparseable matches every *ParseError.
var ErrDeltaUnparseable = errors.New("delta: document could not be parsed")

// ParseError reports a span that failed both the lenient and strict parse.
type ParseError struct {
	Lenient error
	Strict  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse delta: %v", e.Strict)
}

// Unwrap exposes the sentinel and the strict parser's error.
func (e *ParseError) Unwrap() []error {
	return []error{ErrDeltaUnparseable, e.Strict}
}

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
)

// Parse decodes a span returned by Extract into a typed Delta. It tolerates
// trailing commas, unquoted keys, single quotes and typographic quotes.
// Structurally invalid operations are dropped and counted in Delta.Skipped.
func Parse(span string) (*model.Delta, error) {
	raw, err := decodeLoose(span)
	if err != nil {
		return nil, err
	}
	return convert(gjson.ParseBytes(raw)), nil
}

// decodeLoose returns span re-encoded as strict JSON. Numbers keep their
// literal text so large ids survive.
func decodeLoose(span string) ([]byte, error) {
	var doc any
	lenientErr := decodeNumbers(json5.NewDecoder(strings.NewReader(span)), &doc)
	if lenientErr != nil {
		// Typographic quotes are only rewritten on retry: inside a
		// well-formed document they are legitimate content.
		if normalized := smartQuotes.Replace(span); normalized != span {
			doc = nil
			if err := decodeNumbers(json5.NewDecoder(strings.NewReader(normalized)), &doc); err == nil {
				lenientErr = nil
			}
		}
	}
	if lenientErr != nil {
		doc = nil
		if strictErr := decodeNumbers(json.NewDecoder(strings.NewReader(span)), &doc); strictErr != nil {
			return nil, &ParseError{Lenient: lenientErr, Strict: strictErr}
		}
	}
	return json.Marshal(exactNumbers(doc))
}

type numberDecoder interface {
	UseNumber()
	Decode(v any) error
}

var errTrailingData = errors.New("unexpected data after top-level value")

// decodeNumbers decodes exactly one value from dec, keeping numbers as
// literals.
func decodeNumbers(dec numberDecoder, v any) error {
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// exactNumbers rewrites lenient number literals into json.Number. Literals
// strict JSON cannot carry (hex, leading '+' or '.') are converted by value;
// NaN and infinities become null.
func exactNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = exactNumbers(item)
		}
	case []any:
		for i, item := range t {
			t[i] = exactNumbers(item)
		}
	case json5.Number:
		return numberLiteral(string(t))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
	}
	return v
}

func numberLiteral(lit string) any {
	if json.Valid([]byte(lit)) {
		return json.Number(lit)
	}
	if n, err := strconv.ParseInt(lit, 0, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func convert(root gjson.Result) *model.Delta {
	d := &model.Delta{Tiers: make(map[model.TierName]model.TierDelta, len(model.TierNames))}
	if !root.IsObject() {
		return d
	}

	if summary := root.Get("summary"); summary.IsObject() {
		d.Summary = map[string]string{}
		summary.ForEach(func(k, v gjson.Result) bool {
			if text, ok := scalarString(v); ok {
				d.Summary[k.String()] = text
			}
			return true
		})
	}

	for _, name := range model.TierNames {
		td := root.Get(string(name))
		if !td.IsObject() {
			continue
		}
		var ops model.TierDelta
		if upserts := td.Get("upsert"); upserts.IsArray() {
			for _, item := range upserts.Array() {
				u, ok := toUpsert(item)
				if !ok {
					d.Skipped++
					continue
				}
				ops.Upsert = append(ops.Upsert, u)
			}
		}
		if deletes := td.Get("delete"); deletes.IsArray() {
			for _, item := range deletes.Array() {
				id, ok := scalarString(item)
				id = strings.TrimSpace(id)
				if !ok || id == "" {
					d.Skipped++
					continue
				}
				ops.Delete = append(ops.Delete, id)
			}
		}
		d.Tiers[name] = ops
	}
	return d
}

func toUpsert(item gjson.Result) (model.EntryUpsert, bool) {
	if !item.IsObject() {
		return model.EntryUpsert{}, false
	}
	content := item.Get("content")
	if content.Type != gjson.String || strings.TrimSpace(content.Str) == "" {
		return model.EntryUpsert{}, false
	}

	u := model.EntryUpsert{Content: content.Str}
	if id, ok := scalarString(item.Get("id")); ok {
		u.ID = strings.TrimSpace(id)
	}
	if c := item.Get("category"); c.Type == gjson.String {
		u.Category = strings.TrimSpace(c.Str)
	}
	if n, ok := toInt(item.Get("importance")); ok {
		u.Importance = &n
	}
	if e := item.Get("expires_at"); e.Type == gjson.String {
		u.ExpiresAt = e.Str
	}
	if c := item.Get("created_at"); c.Type == gjson.String {
		u.CreatedAt = c.Str
	}
	return u, true
}

// scalarString accepts strings and numbers.
func scalarString(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number:
		return v.Raw, true
	}
	return "", false
}

func toInt(v gjson.Result) (int, bool) {
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
