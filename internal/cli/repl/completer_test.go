package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter("key", "key list", "key new", "otp", "backup create", "key")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"key ", []string{"key list", "key new"}},
		{"ke", []string{"key", "key list", "key new"}},
		{"b", []string{"backup create"}},
		{"h", []string{"history", "help"}},
		{"zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := c.Complete(tt.prefix)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestNewCompleter_Builtins(t *testing.T) {
	c := NewCompleter()
	if got := c.Complete(""); !reflect.DeepEqual(got, builtins) {
		t.Errorf("Complete(\"\") = %v, want %v", got, builtins)
	}
}
