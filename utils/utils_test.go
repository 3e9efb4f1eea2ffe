package utils

import (
	"strconv"
	"testing"
)

func TestB2s(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "Empty slice", input: []byte{}, expected: ""},
		{name: "Nil slice", input: nil, expected: ""},
		{name: "ASCII", input: []byte("runqueue"), expected: "runqueue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := B2s(tt.input); got != tt.expected {
				t.Errorf("B2s(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestItoa(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 65535, -1, -4096, 1 << 30} {
		if got, want := Itoa(n), strconv.Itoa(n); got != want {
			t.Errorf("Itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func BenchmarkItoa(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Itoa(i & 0xffff)
	}
}
