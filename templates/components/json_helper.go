package components

import (
	"encoding/json"
)

// JSON marshals an object to a JSON string for use in hx-vals and data attributes,
// returning "{}" on error
func JSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
