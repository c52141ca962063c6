package enums

import "fmt"

// FlashKind is the severity of a one-shot message shown after a redirect.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashWarning FlashKind = "warning"
	FlashInfo    FlashKind = "info"
)

var validFlashKinds = []FlashKind{FlashSuccess, FlashError, FlashWarning, FlashInfo}

func (k FlashKind) IsValid() bool {
	for _, candidate := range validFlashKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseFlashKind(value string) (FlashKind, error) {
	for _, candidate := range validFlashKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid flash kind %q", value)
}
