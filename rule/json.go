package rule

import "encoding/json"

// Parse decodes a JSON array of Rules. It is the external-contract entry
// point: field names on Rule and its nested types are part of that
// contract and must be kept stable.
func Parse(data []byte) ([]*Rule, error) {
	var rules []*Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Marshal encodes a slice of Rules back to their JSON wire form.
func Marshal(rules []*Rule) ([]byte, error) {
	return json.Marshal(rules)
}
