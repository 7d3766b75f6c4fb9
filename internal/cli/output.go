package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/memtier/internal/model"
	"github.com/rcliao/memtier/internal/reconcile"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v in the selected format. text is used for the text format.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case formatJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case formatYAML:
		b, err := toYAML(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		text(w)
		return nil
	}
}

// toYAML goes through JSON so the json tags on the domain types name the keys.
func toYAML(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func writeState(w io.Writer, s *model.MemoryState) {
	for _, name := range model.TierNames {
		tier := *s.Tier(name)
		fmt.Fprintf(w, "%s (%s): %d\n", reconcile.TierLabel(name), name, len(tier))
		for _, e := range tier {
			line := fmt.Sprintf("  [%s] %s  (%s, importance %d", e.ID, e.Content, e.Category, e.Importance)
			if e.ExpiresAt != "" {
				line += ", expires " + e.ExpiresAt
			}
			fmt.Fprintln(w, line+")")
		}
	}
	if hs := reconcile.Highlights(s.Metadata.Summary); len(hs) > 0 {
		fmt.Fprintln(w, "摘要：")
		for _, h := range hs {
			fmt.Fprintf(w, "  %s: %s\n", h.Key, h.Text)
		}
	}
	fmt.Fprintf(w, "updated %s\n", s.Metadata.LastUpdate)
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	stat, _ := os.Stdin.Stat()
	if stat != nil && stat.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("no input: pass a file or pipe to stdin")
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
}
