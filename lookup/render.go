package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultMaxRender bounds the rendered lookup result shown to users
const DefaultMaxRender = 3500

// Meta is the attribution branch added to every result
type Meta struct {
	Developer string
	PoweredBy string
	Timestamp time.Time
}

// DefaultMeta returns the bot's attribution stamped at now
func DefaultMeta(now time.Time) Meta {
	return Meta{
		Developer: "@Nullprotocol_X",
		PoweredBy: "NULL PROTOCOL",
		Timestamp: now,
	}
}

func (m Meta) node() *Mapping {
	return NewMapping().
		Set("developer", String(m.Developer)).
		Set("powered_by", String(m.PoweredBy)).
		Set("timestamp", String(m.Timestamp.Format(time.RFC3339)))
}

// Wrap returns a mapping carrying the result and a meta branch. Mappings get the
// meta key added, sequences move under "results" and scalars under "data".
func Wrap(node Node, meta Meta) *Mapping {
	var out *Mapping
	switch n := node.(type) {
	case *Mapping:
		out = NewMapping()
		for _, e := range n.Entries() {
			out.Set(e.Key, e.Value)
		}
	case Sequence:
		out = NewMapping().Set("results", n)
	case Scalar:
		out = NewMapping().Set("data", String(scalarText(n)))
	default:
		out = NewMapping()
	}
	return out.Set("meta", meta.node())
}

func scalarText(s Scalar) string {
	switch v := s.Value.(type) {
	case nil:
		return "None"
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(v)
	}
}

// Render pretty-prints the tree. Output longer than max characters is cut and
// followed by a notice; the second result reports whether that happened.
func Render(node Node, max int) (string, bool) {
	text, err := Pretty(node)
	if err != nil {
		text = "Error formatting JSON: " + err.Error()
	}

	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text, false
	}
	return fmt.Sprintf("%s\n\n... [Data truncated, %d characters more]", string(runes[:max]), len(runes)-max), true
}

// Pretty renders the tree as indented JSON without HTML escaping
func Pretty(node Node) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
