package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity classifies a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

// Style is the presentation data bound to a severity.
type Style struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Style returns the icon and colour for the severity.
func (s Severity) Style() Style {
	switch s {
	case SeveritySuccess:
		return Style{Icon: "check-circle", Color: "green"}
	case SeverityError:
		return Style{Icon: "alert-triangle", Color: "red"}
	default:
		return Style{Icon: "info", Color: "blue"}
	}
}

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// ParseSeverity maps a wire name to a Severity. Empty input is info.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return SeverityInfo, nil
	case "success":
		return SeveritySuccess, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", name)
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseSeverity(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Message is notification text, optionally with a list of causes.
type Message struct {
	Text   string   `json:"message"`
	Causes []string `json:"causes,omitempty"`
}

// CloseReason records which path closed a notification.
type CloseReason string

const (
	CloseDismissed CloseReason = "dismissed"
	CloseTimeout   CloseReason = "timeout"
	CloseSwipe     CloseReason = "swipe"
)
