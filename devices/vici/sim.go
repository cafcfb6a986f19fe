package vici

import (
	"fmt"
	"strconv"
	"strings"
)

// Simulator emulates one actuator for loopback rigs: it tracks a position,
// answers CP, and silently accepts valid GO commands the way the real
// hardware does. Commands for other addresses are ignored.
func Simulator(addr string, positions int) func(cmd []byte) []byte {
	pos := 1
	return func(cmd []byte) []byte {
		s := strings.TrimSuffix(string(cmd), "\r")
		s, ok := strings.CutPrefix(s, addr)
		if !ok {
			return nil
		}
		switch {
		case s == "CP":
			return []byte(fmt.Sprintf("CP%d\r", pos))
		case strings.HasPrefix(s, "GO"):
			n, err := strconv.Atoi(s[2:])
			if err == nil && n >= 1 && n <= positions {
				pos = n
			}
			return nil
		}
		return []byte("?\r")
	}
}
