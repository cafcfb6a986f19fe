package hamilton

import "strings"

// Simulator emulates one MVP positioner for loopback rigs: it answers Q
// with the current position letter and echoes accepted V commands.
// Commands for other addresses are ignored.
func Simulator(addr string, positions int) func(cmd []byte) []byte {
	pos := byte('A')
	return func(cmd []byte) []byte {
		s := strings.TrimSuffix(string(cmd), "\r")
		s, ok := strings.CutPrefix(s, addr)
		if !ok {
			return nil
		}
		switch {
		case s == "Q":
			return []byte{pos, '\r'}
		case len(s) == 2 && s[0] == 'V':
			if s[1] >= 'A' && int(s[1]-'A') < positions {
				pos = s[1]
			}
			return []byte{pos, '\r'}
		}
		return []byte("?\r")
	}
}
