package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a TEXT/JSON column into dest. NULL and empty values leave dest untouched.
func scanJSON(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func valueJSON(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// StringList is a JSON encoded list of strings, used for word tags
type StringList []string

func (l *StringList) Scan(src interface{}) error {
	var out []string
	if err := scanJSON(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return valueJSON([]string(l))
}

// Contains reports whether tag is present
func (l StringList) Contains(tag string) bool {
	for _, t := range l {
		if t == tag {
			return true
		}
	}
	return false
}

// Union returns l with every tag in other appended once
func (l StringList) Union(other []string) StringList {
	out := append(StringList{}, l...)
	for _, tag := range other {
		if !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// Difference returns l without any tag in other
func (l StringList) Difference(other []string) StringList {
	remove := StringList(other)
	out := StringList{}
	for _, tag := range l {
		if !remove.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}
