package utils

import "gopkg.in/yaml.v3"

// unmarshal a YAML (or JSON) byte array over a copy of the given defaults
func FromDataToSpec[T interface{}](byteValue []byte, defaults T) (*T, error) {
	d := defaults
	if err := yaml.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
