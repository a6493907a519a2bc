package config

import "strings"

// Pauses disables individual custody commands on the client surfaces. The
// program itself is unaffected; paused commands are refused before an
// instruction is built.
type Pauses struct {
	Init     bool `toml:"Init"`
	Withdraw bool `toml:"Withdraw"`
	Delegate bool `toml:"Delegate"`
}

// Paused reports whether the named command is paused. Unknown names are never
// paused.
func (p Pauses) Paused(command string) bool {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "init":
		return p.Init
	case "withdraw":
		return p.Withdraw
	case "delegate":
		return p.Delegate
	default:
		return false
	}
}
