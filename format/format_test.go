// MODUL: format_test
// ZWECK: Tests fuer Byte-Formatierung und Groessen-Parsing
// INPUT: Groessen-Strings mit verschiedenen Suffixen
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing

package format

import (
	"testing"
	"time"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0B", 0, false},
		{"512B", 512, false},
		{"1K", 1024, false},
		{"1KiB", 1024, false},
		{"2M", 2 * 1024 * 1024, false},
		{"2MiB", 2 * 1024 * 1024, false},
		{"8G", 8 * 1024 * 1024 * 1024, false},
		{"8GiB", 8 * 1024 * 1024 * 1024, false},
		{"1.5G", 1610612736, false},
		{" 4GiB ", 4 * 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"12", 0, true},
		{"G", 0, true},
		{"4TB", 0, true},
		{"-1G", 0, true},
		{"1.2.3G", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBytes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, erwartet %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestHumanBytes2(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{2 * 1024 * 1024, "2.0 MiB"},
		{7 * 1024 * 1024 * 1024, "7.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := HumanBytes2(tt.in); got != tt.want {
				t.Errorf("HumanBytes2(%d) = %q, erwartet %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHumanNanoseconds(t *testing.T) {
	if got, want := HumanNanoseconds(12*time.Millisecond), "12.000000 ms"; got != want {
		t.Errorf("HumanNanoseconds() = %q, erwartet %q", got, want)
	}
	if got, want := HumanNanoseconds(1500*time.Nanosecond), "0.001500 ms"; got != want {
		t.Errorf("HumanNanoseconds() = %q, erwartet %q", got, want)
	}
}
