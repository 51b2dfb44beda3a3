package config

// SecretStringValue replaces secrets in serialized output.
const SecretStringValue = "<secret>"

// SecretString is a string that must not show up in logs or dumps.
type SecretString string

// MarshalJSON hides the value.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML hides the value.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}

// String hides the value from fmt.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}
