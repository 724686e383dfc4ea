package lookup

import (
	"strings"
)

// Rules configures Sanitize. Matching is case-insensitive.
type Rules struct {
	// DropKeys are mapping keys removed wherever they appear
	DropKeys []string
	// BlockedSubstrings remove any mapping string value that contains one of them
	BlockedSubstrings []string
	// CreditKeyword marks string values that advertise a third party
	CreditKeyword string
	// AllowedCreditMark keeps a CreditKeyword value when it also contains this mark
	AllowedCreditMark string
}

// DefaultRules strips the upstream providers' self-promotion
func DefaultRules() Rules {
	return Rules{
		DropKeys: []string{"branding"},
		BlockedSubstrings: []string{
			"@patelkrish_99",
			"patelkrish_99",
			"t.me/anshapi",
			"anshapi",
			"@losernagiofficial",
		},
		CreditKeyword:     "credit",
		AllowedCreditMark: "nullprotocol",
	}
}

// Sanitize returns a copy of the tree with unwanted keys and string values removed.
// Only string values held directly by a mapping are filtered; sequences are walked
// element-wise so nested mappings are cleaned too. The input is never modified.
func Sanitize(node Node, rules Rules) Node {
	r := rules.normalized()
	return r.walk(node)
}

func (r Rules) normalized() Rules {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return Rules{
		DropKeys:          lower(r.DropKeys),
		BlockedSubstrings: lower(r.BlockedSubstrings),
		CreditKeyword:     strings.ToLower(r.CreditKeyword),
		AllowedCreditMark: strings.ToLower(r.AllowedCreditMark),
	}
}

func (r Rules) walk(node Node) Node {
	switch n := node.(type) {
	case *Mapping:
		out := NewMapping()
		for _, e := range n.Entries() {
			if r.dropKey(e.Key) {
				continue
			}
			if s, ok := e.Value.(Scalar); ok {
				if text, isText := s.Text(); isText && r.blocked(text) {
					continue
				}
				out.Set(e.Key, s)
				continue
			}
			out.Set(e.Key, r.walk(e.Value))
		}
		return out
	case Sequence:
		out := make(Sequence, len(n))
		for i, item := range n {
			out[i] = r.walk(item)
		}
		return out
	default:
		return node
	}
}

func (r Rules) dropKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range r.DropKeys {
		if key == k {
			return true
		}
	}
	return false
}

func (r Rules) blocked(value string) bool {
	value = strings.ToLower(value)
	for _, s := range r.BlockedSubstrings {
		if s != "" && strings.Contains(value, s) {
			return true
		}
	}
	if r.CreditKeyword != "" && strings.Contains(value, r.CreditKeyword) {
		return r.AllowedCreditMark == "" || !strings.Contains(value, r.AllowedCreditMark)
	}
	return false
}
