package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Gallery is the ordered list of extra image paths of an equipment,
// stored as a JSON array.
type Gallery []string

func (g Gallery) Value() (driver.Value, error) {
	if len(g) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(g))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (g *Gallery) Scan(src any) error {
	raw, err := columnText(src)
	if err != nil {
		return err
	}
	parsed, err := ParseGallery(raw)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Gallery) MarshalJSON() ([]byte, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(g))
}

func (g *Gallery) UnmarshalJSON(b []byte) error {
	parsed, err := ParseGallery(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGallery accepts a JSON array of strings, or a JSON string holding
// one. Empty input and null yield an empty gallery.
func ParseGallery(raw string) (Gallery, error) {
	r := gjson.Parse(raw)
	if r.Type == gjson.String && gjson.Valid(r.Str) {
		r = gjson.Parse(r.Str)
	}
	switch {
	case raw == "" || r.Type == gjson.Null:
		return Gallery{}, nil
	case !r.IsArray():
		return nil, errors.New("gallery must be a JSON array")
	}
	out := Gallery{}
	for _, item := range r.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

type Spec struct {
	Name  string
	Value string
}

// Specs is an ordered attribute map ("Potência" -> "2 HP"). It is a JSON
// object on the wire and in the column; key order survives a round trip.
type Specs []Spec

func (s Specs) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Specs) Scan(src any) error {
	raw, err := columnText(src)
	if err != nil {
		return err
	}
	parsed, err := ParseSpecs(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Specs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sp := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sp.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sp.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Specs) UnmarshalJSON(b []byte) error {
	parsed, err := ParseSpecs(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Get returns the value for name and whether it was present.
func (s Specs) Get(name string) (string, bool) {
	for _, sp := range s {
		if sp.Name == name {
			return sp.Value, true
		}
	}
	return "", false
}

// ParseSpecs accepts a JSON object, a JSON string holding an object, or an
// array of {"name","value"} pairs. Keys keep document order; a repeated key
// keeps its first position and its last value.
func ParseSpecs(raw string) (Specs, error) {
	r := gjson.Parse(raw)
	if r.Type == gjson.String && gjson.Valid(r.Str) {
		r = gjson.Parse(r.Str)
	}
	out := Specs{}
	add := func(name, value string) {
		if name == "" {
			return
		}
		for i := range out {
			if out[i].Name == name {
				out[i].Value = value
				return
			}
		}
		out = append(out, Spec{Name: name, Value: value})
	}
	switch {
	case raw == "" || r.Type == gjson.Null:
		return out, nil
	case r.IsObject():
		r.ForEach(func(k, v gjson.Result) bool {
			add(k.String(), v.String())
			return true
		})
	case r.IsArray():
		for _, item := range r.Array() {
			if !item.IsObject() {
				return nil, errors.New("specs array items must be objects with name and value")
			}
			add(item.Get("name").String(), item.Get("value").String())
		}
	default:
		return nil, errors.New("specs must be a JSON object")
	}
	return out, nil
}

func columnText(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("unsupported column type %T", src)
	}
}
