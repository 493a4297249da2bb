package attrset

import (
	"encoding/json"
	"fmt"
)

// wireValue is the JSON surface for an attribute value:
// {type: "FiniteSet"|"IntegerSet"|"RegexSet"|"UniversalSet"|"EmptySet", data: ...}
type wireValue struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireInterval [2]json.RawMessage

func boundJSON(v int64) json.RawMessage {
	if v == NegInf {
		return json.RawMessage(`"-inf"`)
	}
	if v == PosInf {
		return json.RawMessage(`"inf"`)
	}
	b, _ := json.Marshal(v)
	return b
}

func parseBound(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "-inf":
			return NegInf, nil
		case "inf":
			return PosInf, nil
		}
		return 0, fmt.Errorf("attrset: invalid interval bound %q", s)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("attrset: invalid interval bound: %w", err)
	}
	return n, nil
}

// MarshalJSON encodes v as a tagged {type, data} JSON value.
func MarshalJSON(v Value) ([]byte, error) {
	switch t := v.(type) {
	case emptySet:
		return json.Marshal(wireValue{Type: KindEmpty})
	case universalSet:
		return json.Marshal(wireValue{Type: KindUniversal})
	case finiteSet:
		data, err := json.Marshal(t.sorted())
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireValue{Type: KindFinite, Data: data})
	case intervalSet:
		ivs := make([]wireInterval, len(t.intervals))
		for i, iv := range t.intervals {
			ivs[i] = wireInterval{boundJSON(iv.Lo), boundJSON(iv.Hi)}
		}
		data, err := json.Marshal(ivs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireValue{Type: KindInterval, Data: data})
	case regexSet:
		data, err := json.Marshal(t.pattern)
		if err != nil {
			return nil, err
		}
		return json.Marshal(wireValue{Type: KindRegex, Data: data})
	default:
		return nil, newErr("marshal", "unsupported variant %T", v)
	}
}

// UnmarshalJSON decodes v from a tagged {type, data} JSON value.
func UnmarshalJSON(data []byte) (Value, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("attrset: %w", err)
	}
	switch w.Type {
	case KindEmpty:
		return emptySet{}, nil
	case KindUniversal:
		return universalSet{}, nil
	case KindFinite:
		var atoms []any
		if err := json.Unmarshal(w.Data, &atoms); err != nil {
			return nil, fmt.Errorf("attrset: finite set data: %w", err)
		}
		normalized := make([]Atom, len(atoms))
		for i, a := range atoms {
			if f, ok := a.(float64); ok && f == float64(int64(f)) {
				normalized[i] = int64(f)
			} else {
				normalized[i] = a
			}
		}
		return NewFinite(normalized...), nil
	case KindInterval:
		var raw []wireInterval
		if err := json.Unmarshal(w.Data, &raw); err != nil {
			return nil, fmt.Errorf("attrset: interval set data: %w", err)
		}
		ivs := make([]Interval, len(raw))
		for i, r := range raw {
			lo, err := parseBound(r[0])
			if err != nil {
				return nil, err
			}
			hi, err := parseBound(r[1])
			if err != nil {
				return nil, err
			}
			ivs[i] = Interval{Lo: lo, Hi: hi}
		}
		return NewIntegerInterval(ivs...), nil
	case KindRegex:
		var pattern string
		if err := json.Unmarshal(w.Data, &pattern); err != nil {
			return nil, fmt.Errorf("attrset: regex data: %w", err)
		}
		return NewRegex(pattern)
	default:
		return nil, newErr("unmarshal", "unknown attribute value type %q", w.Type)
	}
}
