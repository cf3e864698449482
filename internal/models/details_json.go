package models

import "encoding/json"

func (d *Details) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(d.keys))
	for _, k := range d.keys {
		m[k] = d.values[k]
	}
	return json.Marshal(m)
}

func (d *Details) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = *NewDetails()
	for k, v := range m {
		d.Set(k, v)
	}
	return nil
}
