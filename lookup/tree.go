package lookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Node is one value of a decoded API response: a Scalar, a Sequence or a *Mapping
type Node interface {
	json.Marshaler
	isNode()
}

// Scalar holds a string, json.Number, bool or nil
type Scalar struct {
	Value any
}

// String builds a string scalar
func String(s string) Scalar {
	return Scalar{Value: s}
}

// Text returns the string value and whether the scalar is a string
func (s Scalar) Text() (string, bool) {
	v, ok := s.Value.(string)
	return v, ok
}

func (s Scalar) isNode() {}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

// Sequence is an ordered list of nodes
type Sequence []Node

func (s Sequence) isNode() {}

func (s Sequence) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := n.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Entry is one key of a Mapping
type Entry struct {
	Key   string
	Value Node
}

// Mapping is a string-keyed object that keeps its key order
type Mapping struct {
	entries []Entry
}

// NewMapping creates an empty mapping
func NewMapping() *Mapping {
	return &Mapping{}
}

func (m *Mapping) isNode() {}

// Set replaces the value of an existing key or appends a new one
func (m *Mapping) Set(key string, value Node) *Mapping {
	for i := range m.entries {
		if m.entries[i].Key == key {
			m.entries[i].Value = value
			return m
		}
	}
	m.entries = append(m.entries, Entry{Key: key, Value: value})
	return m
}

// Get returns the value stored under key
func (m *Mapping) Get(key string) (Node, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Entries returns the entries in insertion order
func (m *Mapping) Entries() []Entry {
	return m.entries
}

// Len returns the number of keys
func (m *Mapping) Len() int {
	return len(m.entries)
}

func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		data, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse decodes a JSON document into a tree, keeping object key order
func Parse(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return node, nil
}

func parseValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				value, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := Sequence{}
			for dec.More() {
				value, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return Scalar{Value: t}, nil
	}
}
