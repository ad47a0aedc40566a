package source

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Extra holds the JSON members a model does not know about, so documents
// survive a load and save untouched apart from what was changed on purpose.
type Extra map[string]json.RawMessage

// object is a JSON object being taken apart or put together.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, error) {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o == nil {
		o = object{}
	}
	return o, nil
}

// take decodes member name into dst and removes it. A missing member leaves dst alone.
func (o object) take(name string, dst any) (bool, error) {
	raw, ok := o[name]
	if !ok {
		return false, nil
	}
	delete(o, name)
	return true, json.Unmarshal(raw, dst)
}

// rest returns the members nobody took.
func (o object) rest() Extra {
	if len(o) == 0 {
		return nil
	}
	return Extra(o)
}

// member is one known member to encode.
type member struct {
	name  string
	value any
}

// encodeObject writes the known members in order, then the extra ones sorted by name.
// HTML characters are left unescaped.
func encodeObject(known []member, extra Extra) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(name string, raw []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		nameJSON, _ := marshal(name)
		buf.Write(nameJSON)
		buf.WriteByte(':')
		buf.Write(raw)
	}

	for _, m := range known {
		raw, err := marshal(m.value)
		if err != nil {
			return nil, err
		}
		write(m.name, raw)
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(name, extra[name])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
