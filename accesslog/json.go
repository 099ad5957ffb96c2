package accesslog

import "encoding/json"

// Marshal encodes an Entry to its external JSON wire form.
func (e *Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
