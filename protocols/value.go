/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2019 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

package protocols

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// ValueKind discriminates the variant a Value currently holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

// Value is the runtime-typed content a message body field can hold. It is
// a closed sum of the shapes a dialogue content payload is expected to
// carry (booleans, numbers, strings, raw bytes, and nested lists/maps of
// the same), so that a message body remains JSON-interoperable without
// degrading to bare map[string]interface{} everywhere it is touched.
type Value struct {
	kind  ValueKind
	b     bool
	i     int64
	f     float64
	s     string
	bytes []byte
	list  []Value
	m     map[string]Value
}

func NullValue() Value                       { return Value{kind: KindNull} }
func BoolValue(b bool) Value                 { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value                 { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value             { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value             { return Value{kind: KindString, s: s} }
func BytesValue(b []byte) Value              { return Value{kind: KindBytes, bytes: b} }
func ListValue(items []Value) Value          { return Value{kind: KindList, list: items} }
func MapValue(fields map[string]Value) Value { return Value{kind: KindMap, m: fields} }

// Kind reports which variant the value currently holds.
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) AsBool() (bool, bool)            { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)            { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)        { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)        { return v.s, v.kind == KindString }
func (v Value) AsBytes() ([]byte, bool)         { return v.bytes, v.kind == KindBytes }
func (v Value) AsList() ([]Value, bool)         { return v.list, v.kind == KindList }
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// MarshalJSON renders the value as plain JSON; a caller downstream of the
// engine never needs to know about ValueKind to read a logged or persisted
// message body.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(v.bytes)
	case KindList:
		return json.Marshal(v.list)
	case KindMap:
		return json.Marshal(v.m)
	default:
		return nil, errors.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON classifies plain JSON back into a Value. Note this is not a
// perfect round trip for KindBytes: a byte slice that was marshalled to a
// base64 string comes back as KindString, since JSON itself carries no
// "these are bytes" tag. Likewise a KindFloat holding an integral value
// (e.g. 2.0) comes back as KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = valueFromInterface(raw)
	return nil
}

func valueFromInterface(raw interface{}) Value {
	switch typed := raw.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(typed)
	case float64:
		if typed == math.Trunc(typed) {
			return IntValue(int64(typed))
		}
		return FloatValue(typed)
	case string:
		return StringValue(typed)
	case []interface{}:
		items := make([]Value, len(typed))
		for i, item := range typed {
			items[i] = valueFromInterface(item)
		}
		return ListValue(items)
	case map[string]interface{}:
		fields := make(map[string]Value, len(typed))
		for key, item := range typed {
			fields[key] = valueFromInterface(item)
		}
		return MapValue(fields)
	default:
		return NullValue()
	}
}
