package specmodel

import "encoding/json"

func marshalJSONString(s string) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalJSONString(b []byte) (string, error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", err
	}
	return s, nil
}
