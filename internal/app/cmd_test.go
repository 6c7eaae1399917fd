package app

import (
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{nil, CommandServe},
		{[]string{"serve"}, CommandServe},
		{[]string{"worker"}, CommandWorker},
		{[]string{"migrate"}, CommandMigrate},
		{[]string{"healthcheck"}, CommandHealthcheck},
		{[]string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.args)
		if err != nil {
			t.Errorf("ParseCommand(%v) error: %v", tt.args, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseCommand_Unknown(t *testing.T) {
	for _, arg := range []string{"unknown", "Serve", ""} {
		_, err := ParseCommand([]string{arg})
		if err == nil {
			t.Errorf("ParseCommand([%q]) should fail", arg)
			continue
		}
		if !strings.Contains(err.Error(), "serve, worker, migrate, healthcheck") {
			t.Errorf("error should list commands: %v", err)
		}
	}
}
