package uuid

import . "github.com/nu7hatch/gouuid"

func GenerateUUID() (string, error) {
	guid, err := NewV4()
	if err != nil {
		return "", err
	}
	return guid.String(), nil
}

// ConnectionID returns a fresh v4 uuid for tagging connection log lines,
// or "unknown" when the random source fails.
func ConnectionID() string {
	id, err := GenerateUUID()
	if err != nil {
		return "unknown"
	}
	return id
}
