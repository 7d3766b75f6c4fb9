package prompt

import (
	"text/template"

	"github.com/rcliao/memtier/internal/reconcile"
)

var funcs = template.FuncMap{
	"label": reconcile.TierLabel,
}

const promptTemplate = `{{.Instructions}}

# 当前记忆
{{range .Groups}}
## {{label .Tier}} ({{.Tier}})
{{- if not .Lines}}
(空)
{{- end}}
{{- range .Lines}}
- [{{.Entry.ID}}] {{.Entry.Content}} (category={{.Entry.Category}}, importance={{.Entry.Importance}}{{if .Entry.ExpiresAt}}, expires_at={{.Entry.ExpiresAt}}{{end}})
{{- end}}
{{end}}
{{- if .Omitted}}
另有 {{.Omitted}} 条记忆因篇幅省略。
{{end}}
{{- if .Summary}}
# 摘要
{{- range .Summary}}
- {{.Key}}: {{.Value}}
{{- end}}
{{end}}
# 输出格式
{
  "summary": {"core_memory_highlights": "", "long_term_highlights": "", "medium_term_highlights": "", "short_term_highlights": ""},
  "core_memory": {"upsert": [{"id": "", "content": "", "category": "", "importance": 3, "expires_at": ""}], "delete": []},
  "long_term": {"upsert": [], "delete": []},
  "medium_term": {"upsert": [], "delete": []},
  "short_term": {"upsert": [], "delete": []}
}
更新已有条目时沿用其 id；不需要的条目放入 delete。
`
