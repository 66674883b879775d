package raw

// OneOrMany holds a field that upstream emits as a bare value when it has one entry and as
// an array when it has several.
type OneOrMany[T any] struct {
	Items []T
	// Multi records that the array shape was used, even for a one-element array.
	Multi bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	var single T
	var many []T
	idx, err := matchVariant(data, "single value or array",
		variant{name: "single", decode: func(b []byte) error { return decodeNested(b, &single) }},
		variant{name: "array", decode: func(b []byte) error { return decodeNested(b, &many) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*o = OneOrMany[T]{Items: []T{single}}
	} else {
		*o = OneOrMany[T]{Items: many, Multi: true}
	}
	return nil
}

// IntOrString is an integer that upstream sometimes sends as a numeric string.
// The string is kept verbatim here; conversion happens during normalization.
type IntOrString struct {
	Num    int
	Text   string
	IsText bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *IntOrString) UnmarshalJSON(data []byte) error {
	var num int
	var text string
	idx, err := matchVariant(data, "integer or numeric string",
		variant{name: "number", decode: func(b []byte) error { return decodeNested(b, &num) }},
		variant{name: "string", decode: func(b []byte) error { return decodeNested(b, &text) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*v = IntOrString{Num: num}
	} else {
		*v = IntOrString{Text: text, IsText: true}
	}
	return nil
}

// BoolOrText is a flag upstream sends either as a JSON boolean or as a textual token.
type BoolOrText struct {
	Bool   bool
	Text   string
	IsText bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *BoolOrText) UnmarshalJSON(data []byte) error {
	var b bool
	var text string
	idx, err := matchVariant(data, "boolean or text",
		variant{name: "boolean", decode: func(d []byte) error { return decodeNested(d, &b) }},
		variant{name: "text", decode: func(d []byte) error { return decodeNested(d, &text) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*v = BoolOrText{Bool: b}
	} else {
		*v = BoolOrText{Text: text, IsText: true}
	}
	return nil
}

// APIError is the structured shape of the top-level "error" field.
type APIError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// ErrorField is the top-level "error" value: literal false, or an APIError object.
type ErrorField struct {
	// Err is nil for the literal false.
	Err *APIError
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ErrorField) UnmarshalJSON(data []byte) error {
	var flag bool
	var apiErr APIError
	idx, err := matchVariant(data, "false or error object",
		variant{name: "false", decode: func(b []byte) error {
			if err := decodeNested(b, &flag); err != nil {
				return err
			}
			if flag {
				return Violation("", "expected literal false, got true")
			}
			return nil
		}},
		variant{name: "error object", decode: func(b []byte) error { return decodeNested(b, &apiErr) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*e = ErrorField{}
	} else {
		*e = ErrorField{Err: &apiErr}
	}
	return nil
}

// StateEntry is one element of a pod's "states": a plain state or a group of alternatives.
// Exactly one of Leaf and Group is set.
type StateEntry struct {
	Leaf  *State
	Group *MultiState
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *StateEntry) UnmarshalJSON(data []byte) error {
	var leaf State
	var group MultiState
	idx, err := matchVariant(data, "state",
		variant{name: "state", decode: func(b []byte) error { return decodeNested(b, &leaf) }},
		variant{name: "state group", decode: func(b []byte) error { return decodeNested(b, &group) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*s = StateEntry{Leaf: &leaf}
	} else {
		*s = StateEntry{Group: &group}
	}
	return nil
}

// UnitsEntry is one element of an info's "units" array: a measurement unit, an array of
// measurement units, or the icon that renders the unit legend. Exactly one field is set.
type UnitsEntry struct {
	Units  *OneOrMany[MeasurementUnit]
	Source *UnitSource
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *UnitsEntry) UnmarshalJSON(data []byte) error {
	var units OneOrMany[MeasurementUnit]
	var src UnitSource
	idx, err := matchVariant(data, "unit entry",
		variant{name: "measurement units", decode: func(b []byte) error { return decodeNested(b, &units) }},
		variant{name: "unit source", decode: func(b []byte) error { return decodeNested(b, &src) }},
	)
	if err != nil {
		return err
	}
	if idx == 0 {
		*u = UnitsEntry{Units: &units}
	} else {
		*u = UnitsEntry{Source: &src}
	}
	return nil
}
