package store

import (
	"encoding/json"
	"fmt"
)

// metaValueWire is MetaValue's JSON shape: a tagged union so a reader
// (or the snapshot format) never has to guess a value's type from its
// JSON encoding alone.
type metaValueWire struct {
	Kind   string          `json:"kind"`
	Array  bool            `json:"array,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
	Values json.RawMessage `json:"values,omitempty"`
}

func kindName(k MetaKind) (string, error) {
	switch k {
	case MetaString:
		return "string", nil
	case MetaNumber:
		return "number", nil
	case MetaBool:
		return "bool", nil
	default:
		return "", fmt.Errorf("store: unknown metadata kind %d", k)
	}
}

func parseKindName(name string) (MetaKind, error) {
	switch name {
	case "string":
		return MetaString, nil
	case "number":
		return MetaNumber, nil
	case "bool":
		return MetaBool, nil
	default:
		return 0, fmt.Errorf("store: unknown metadata kind %q", name)
	}
}

// MarshalJSON implements json.Marshaler for MetaValue.
func (v MetaValue) MarshalJSON() ([]byte, error) {
	name, err := kindName(v.Kind)
	if err != nil {
		return nil, err
	}
	w := metaValueWire{Kind: name, Array: v.Array}

	if v.Array {
		var raw any
		switch v.Kind {
		case MetaString:
			raw = v.StrArr
		case MetaNumber:
			raw = v.NumArr
		case MetaBool:
			raw = v.BoolArr
		}
		values, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		w.Values = values
	} else {
		var raw any
		switch v.Kind {
		case MetaString:
			raw = v.Str
		case MetaNumber:
			raw = v.Num
		case MetaBool:
			raw = v.Bool
		}
		value, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		w.Value = value
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler for MetaValue.
func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var w metaValueWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := parseKindName(w.Kind)
	if err != nil {
		return err
	}

	out := MetaValue{Kind: kind, Array: w.Array}
	if w.Array {
		switch kind {
		case MetaString:
			if err := json.Unmarshal(w.Values, &out.StrArr); err != nil {
				return err
			}
		case MetaNumber:
			if err := json.Unmarshal(w.Values, &out.NumArr); err != nil {
				return err
			}
		case MetaBool:
			if err := json.Unmarshal(w.Values, &out.BoolArr); err != nil {
				return err
			}
		}
	} else {
		switch kind {
		case MetaString:
			if err := json.Unmarshal(w.Value, &out.Str); err != nil {
				return err
			}
		case MetaNumber:
			if err := json.Unmarshal(w.Value, &out.Num); err != nil {
				return err
			}
		case MetaBool:
			if err := json.Unmarshal(w.Value, &out.Bool); err != nil {
				return err
			}
		}
	}
	*v = out
	return nil
}
