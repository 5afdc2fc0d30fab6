package models

import (
	"fmt"
	"strings"
)

// Protocol identifies the test archetype a session is acquiring for.
type Protocol int

const (
	ProtocolJump Protocol = iota
	ProtocolBalance
	ProtocolIsometric
)

var protocolNames = [...]string{"jump", "balance", "isometric"}

func (p Protocol) String() string {
	if int(p) >= 0 && int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return "unknown"
}

// ParseProtocol maps a config/CLI name to a Protocol.
func ParseProtocol(name string) (Protocol, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, pn := range protocolNames {
		if pn == n {
			return Protocol(i), nil
		}
	}
	return 0, fmt.Errorf("unknown protocol %q", name)
}

// Suitable applies the protocol's suitability gate to a sample.
func (p Protocol) Suitable(s ForceSample) bool {
	switch p {
	case ProtocolJump:
		return s.SuitableForJump()
	case ProtocolBalance:
		return s.SuitableForBalance()
	case ProtocolIsometric:
		return s.SuitableForIsometric()
	}
	return false
}
