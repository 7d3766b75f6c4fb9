package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/memtier/internal/delta"
	"github.com/rcliao/memtier/internal/model"
)

// TierReport is the outcome for one tier.
type TierReport struct {
	Tier model.TierName `json:"tier"`
	Counts
}

// Highlight is one summary line supplied with a delta.
type Highlight struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Report is the user-visible confirmation of an applied delta.
type Report struct {
	Timestamp  string       `json:"timestamp"`
	Tiers      []TierReport `json:"tiers"`
	Highlights []Highlight  `json:"highlights,omitempty"`
}

// Totals sums the counts over every tier.
func (r *Report) Totals() Counts {
	var c Counts
	for _, t := range r.Tiers {
		c.Added += t.Added
		c.Updated += t.Updated
		c.Deleted += t.Deleted
	}
	return c
}

// For returns the counts recorded for the named tier.
func (r *Report) For(name model.TierName) Counts {
	for _, t := range r.Tiers {
		if t.Tier == name {
			return t.Counts
		}
	}
	return Counts{}
}

var tierLabels = map[model.TierName]string{
	model.CoreMemory: "核心记忆",
	model.LongTerm:   "长期记忆",
	model.MediumTerm: "中期记忆",
	model.ShortTerm:  "短期记忆",
}

// TierLabel returns the display name of a tier.
func TierLabel(name model.TierName) string {
	if l, ok := tierLabels[name]; ok {
		return l
	}
	return string(name)
}

// CountsLine renders counts the way they appear in the report.
func CountsLine(c Counts) string {
	return fmt.Sprintf("新增 %d 条，更新 %d 条，删除 %d 条", c.Added, c.Updated, c.Deleted)
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "记忆已更新（%s）\n", r.Timestamp)
	for _, t := range r.Tiers {
		fmt.Fprintf(&b, "%s：%s\n", TierLabel(t.Tier), CountsLine(t.Counts))
	}
	if len(r.Highlights) > 0 {
		b.WriteString("摘要：\n")
		for _, h := range r.Highlights {
			fmt.Fprintf(&b, "- %s: %s\n", h.Key, h.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// HighlightKeys are the summary keys the model is asked to produce.
var HighlightKeys = []string{
	"core_memory_highlights",
	"long_term_highlights",
	"medium_term_highlights",
	"short_term_highlights",
}

// Highlights orders known keys first, then the rest alphabetically.
// Blank values are left out.
func Highlights(summary map[string]string) []Highlight {
	var out []Highlight
	seen := make(map[string]bool, len(HighlightKeys))
	for _, k := range HighlightKeys {
		seen[k] = true
		if v, ok := summary[k]; ok && strings.TrimSpace(v) != "" {
			out = append(out, Highlight{Key: k, Text: v})
		}
	}
	var rest []string
	for k := range summary {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if v := summary[k]; strings.TrimSpace(v) != "" {
			out = append(out, Highlight{Key: k, Text: v})
		}
	}
	return out
}

// FailureMessage renders a user-facing diagnostic for a failed apply.
func FailureMessage(err error) string {
	var pe *delta.ParseError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, delta.ErrDeltaUnrecognized):
		return "记忆更新失败：模型输出中没有找到 JSON 内容，记忆未修改。"
	case errors.As(err, &pe):
		return fmt.Sprintf("记忆更新失败：无法解析模型输出的 JSON（%v），记忆未修改。", pe.Strict)
	default:
		return fmt.Sprintf("记忆更新失败：%v", err)
	}
}
