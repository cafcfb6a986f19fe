package transport

import "testing"

func TestPortDescription(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM2", "USB CDC/ACM Device"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttyS1", "Standard Serial Port"},
		{"rfcomm0", "Serial Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := portDescription(tt.name); got != tt.want {
				t.Errorf("portDescription(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestPortPatterns(t *testing.T) {
	matching := []string{"ttyUSB0", "ttyUSB12", "ttyACM0", "ttyS0", "ttyAMA0"}
	for _, name := range matching {
		found := false
		for _, pattern := range portPatterns {
			if pattern.MatchString(name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q to match a port pattern", name)
		}
	}

	excluded := []string{"tty1", "console", "ptmx", "ptyp0"}
	for _, name := range excluded {
		found := false
		for _, pattern := range excludePatterns {
			if pattern.MatchString(name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q to match an exclude pattern", name)
		}
	}
}

func TestGetPortInfoMissingDevice(t *testing.T) {
	if _, err := GetPortInfo("/dev/does-not-exist"); err != ErrDeviceNotFound {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}
