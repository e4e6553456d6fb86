package mri

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Sex is the reported patient sex.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
	SexOther  Sex = "Other"
)

// IsValid reports whether s is one of the accepted values.
func (s Sex) IsValid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// ClinicalData carries the clinical metadata of one case. Beyond the three
// well-known fields, arbitrary additional fields submitted by the client
// are preserved round-trip in Extra.
type ClinicalData struct {
	Age       int    `json:"age"`
	Sex       Sex    `json:"sex"`
	Diagnosis string `json:"diagnosis"`

	// Extra holds any additional clinical fields. Keys never collide with
	// the named fields above.
	Extra map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra alongside the named fields.
func (c ClinicalData) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["age"] = c.Age
	out["sex"] = c.Sex
	out["diagnosis"] = c.Diagnosis
	return json.Marshal(out)
}

// UnmarshalJSON extracts the named fields and keeps everything else in
// Extra. Age tolerates both JSON numbers and numeric strings; anything
// unparseable becomes 0 and is caught by request validation.
func (c *ClinicalData) UnmarshalJSON(data []byte) error {
	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	switch v := all["age"].(type) {
	case float64:
		c.Age = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			c.Age = n
		}
	}
	if v, ok := all["sex"].(string); ok {
		c.Sex = Sex(v)
	}
	if v, ok := all["diagnosis"].(string); ok {
		c.Diagnosis = v
	}

	delete(all, "age")
	delete(all, "sex")
	delete(all, "diagnosis")
	if len(all) == 0 {
		all = nil
	}
	c.Extra = all
	return nil
}
