package user

import "fmt"

// AuthType identifies how a principal authenticates.
type AuthType string

const (
	MiniProgram AuthType = "MiniProgram"
	Password    AuthType = "Password"
	Mobile      AuthType = "Mobile"
	Email       AuthType = "Email"
)

// AuthTypes lists every known AuthType.
var AuthTypes = []AuthType{MiniProgram, Password, Mobile, Email}

// Valid reports whether t is a known AuthType.
func (t AuthType) Valid() bool {
	for _, known := range AuthTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t AuthType) String() string { return string(t) }

// ParseAuthType returns the AuthType named s.
func ParseAuthType(s string) (AuthType, error) {
	t := AuthType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown auth type %q", s)
	}
	return t, nil
}
