// Package prompt renders a memory document and instructions into the text
// sent to the model.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/rcliao/memtier/internal/model"
)

// DefaultBudget is the character budget for rendered entries.
const DefaultBudget = 8000

// DefaultInstructions asks the model for a delta document.
const DefaultInstructions = "请根据当前的聊天记录和已有记忆，生成一份记忆更新。只输出一个 JSON 对象，不要输出其他内容。"

// minExcerpt is the smallest remaining budget worth filling with a truncated entry.
const minExcerpt = 100

// Input carries the caller-supplied parts of a prompt.
type Input struct {
	Persona      string
	Instructions string
}

// Line is one packed entry.
type Line struct {
	Tier    model.TierName
	Entry   model.Entry
	Excerpt bool
}

// Prompt is the rendered output.
type Prompt struct {
	System  string `json:"system"`
	Text    string `json:"text"`
	Budget  int    `json:"budget"`
	Used    int    `json:"used"`
	Packed  int    `json:"packed"`
	Omitted int    `json:"omitted"`
}

// Builder renders prompts. The zero value is not usable; call New.
type Builder struct {
	budget int
	tmpl   *template.Template
}

// New returns a Builder packing entries into budget characters. A
// non-positive budget selects DefaultBudget.
func New(budget int) *Builder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Builder{
		budget: budget,
		tmpl:   template.Must(template.New("prompt").Funcs(funcs).Parse(promptTemplate)),
	}
}

// Budget returns the configured character budget.
func (b *Builder) Budget() int {
	return b.budget
}

// Build renders state and in. Entries are ordered by importance, then most
// recently updated, and greedily packed into the budget.
func (b *Builder) Build(state *model.MemoryState, in Input) (*Prompt, error) {
	instructions := strings.TrimSpace(in.Instructions)
	if instructions == "" {
		instructions = DefaultInstructions
	}

	lines, used, omitted := pack(state, b.budget)

	groups := make([]group, 0, len(model.TierNames))
	for _, name := range model.TierNames {
		g := group{Tier: name}
		for _, l := range lines {
			if l.Tier == name {
				g.Lines = append(g.Lines, l)
			}
		}
		groups = append(groups, g)
	}

	var sb strings.Builder
	err := b.tmpl.Execute(&sb, data{
		Instructions: instructions,
		Groups:       groups,
		Summary:      sortedSummary(state.Metadata.Summary),
		Omitted:      omitted,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	return &Prompt{
		System:  strings.TrimSpace(in.Persona),
		Text:    sb.String(),
		Budget:  b.budget,
		Used:    used,
		Packed:  len(lines),
		Omitted: omitted,
	}, nil
}

func pack(state *model.MemoryState, budget int) (lines []Line, used, omitted int) {
	var all []Line
	for _, name := range model.TierNames {
		for _, e := range *state.Tier(name) {
			all = append(all, Line{Tier: name, Entry: e})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].Entry, all[j].Entry
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		return a.UpdatedAt > b.UpdatedAt
	})

	for i, l := range all {
		size := utf8.RuneCountInString(l.Entry.Content)
		if used+size <= budget {
			lines = append(lines, l)
			used += size
			continue
		}
		rest := len(all) - i
		if remaining := budget - used; remaining >= minExcerpt {
			l.Entry.Content = truncate(l.Entry.Content, remaining) + "..."
			l.Excerpt = true
			lines = append(lines, l)
			used += remaining
			rest--
		}
		omitted = rest
		break
	}
	return lines, used, omitted
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func sortedSummary(m map[string]string) []kv {
	out := make([]kv, 0, len(m))
	for k, v := range m {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, kv{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

type kv struct {
	Key   string
	Value string
}

type group struct {
	Tier  model.TierName
	Lines []Line
}

type data struct {
	Instructions string
	Groups       []group
	Summary      []kv
	Omitted      int
}
