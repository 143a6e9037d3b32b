package models

import "fmt"

// Backend is the routing state shared by the resolver and the health monitor.
// Unknown is never handed out to data access code.
type Backend uint8

const (
	Unknown Backend = iota
	Primary
	Backup
)

func (b Backend) String() string {
	switch b {
	case Primary:
		return "primary"
	case Backup:
		return "backup"
	}
	return "unknown"
}

func ParseBackend(s string) (Backend, error) {
	switch s {
	case "primary":
		return Primary, nil
	case "backup":
		return Backup, nil
	case "unknown", "":
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown backend %q", s)
}

func (b Backend) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
