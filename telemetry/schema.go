package telemetry

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"f1telemetry/models"
)

// Groups are the nested telemetry objects flattened into channels, in channel-table order.
var Groups = []string{"CarTelemetryData", "CarMotionData"}

// decodeObject decodes a JSON object keeping its key order. Numbers stay json.Number.
func decodeObject(raw json.RawMessage) ([]string, map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.Errorf("expected object, got %v", tok)
	}

	var keys []string
	vals := make(map[string]interface{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.Errorf("expected object key, got %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, nil, errors.Wrapf(err, "field %s", key)
		}
		if _, dup := vals[key]; !dup {
			keys = append(keys, key)
		}
		vals[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, vals, nil
}

// discoverSchema builds the channel table of one group from the group object of its first valid sample.
// taken holds names already claimed by earlier groups; clashing fields are qualified with the group name.
func discoverSchema(group string, keys []string, vals map[string]interface{}, taken map[string]bool) models.ChannelTable {
	var table models.ChannelTable
	for _, key := range keys {
		spec := models.ChannelSpec{Group: group, Field: key, Name: key}
		if taken[key] {
			spec.Name = group + "." + key
		}

		switch v := vals[key].(type) {
		case []interface{}:
			if len(v) == 0 {
				continue
			}
			spec.Width = len(v)
			spec.Numeric = true
			for _, el := range v {
				if _, ok := el.(json.Number); !ok {
					spec.Numeric = false
					break
				}
			}
		default:
			_, spec.Numeric = v.(json.Number)
		}

		taken[spec.Name] = true
		table = append(table, spec)
	}
	return table
}

// extract appends one sample's values for every channel of spec. Absent fields, absent
// indices and non-numeric values read as 0.
func extract(spec models.ChannelSpec, group map[string]interface{}, channels map[string][]float64) {
	raw, present := group[spec.Field]

	if !spec.IsVector() {
		v := 0.0
		if present {
			v = toFloat(raw)
		}
		channels[spec.Name] = append(channels[spec.Name], v)
		return
	}

	arr, _ := raw.([]interface{})
	for i, name := range spec.ChannelNames() {
		v := 0.0
		if i < len(arr) {
			v = toFloat(arr[i])
		}
		channels[name] = append(channels[name], v)
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}
