package logging

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"", INFO, false},
		{"info", INFO, false},
		{"DEBUG", DEBUG, false},
		{" trace ", TRACE, false},
		{"verbose", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Expected level %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNewLoggerHonoursVerbosity(t *testing.T) {
	logger, err := NewLogger(DEBUG, false)
	if err != nil {
		t.Fatalf("Expected logger, got %v", err)
	}
	if !logger.V(DEBUG).Enabled() {
		t.Error("Expected DEBUG to be enabled")
	}
	if logger.V(TRACE).Enabled() {
		t.Error("Expected TRACE to be disabled")
	}

	if !NewTestLogger().V(TRACE).Enabled() {
		t.Error("Expected test logger to enable TRACE")
	}
}
