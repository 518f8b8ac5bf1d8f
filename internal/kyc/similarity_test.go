package kyc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "identical", a: "Ravi Kumar", b: "Ravi Kumar", want: 100},
		{name: "case is ignored", a: "JOHN SMITH", b: "john smith", want: 100},
		{name: "ocr noise", a: "John A Smith", b: "Jon A. Smith", want: 83},
		{name: "exactly seventy", a: "abcdefghij", b: "abcdefgxyz", want: 70},
		{name: "sixty nine", a: "abcdefghijklm", b: "abcdefghixyzw", want: 69},
		{name: "empty left", a: "", b: "John", want: 0},
		{name: "both blank", a: "  ", b: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
		})
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{name: "contained verbatim", a: "12 Main Street", b: "S/O Ram, 12 Main Street, Springfield 62704", want: 100},
		{name: "argument order does not matter", a: "S/O Ram, 12 Main Street, Springfield", b: "12 main street", want: 100},
		{name: "equal length falls back to ratio", a: "abcdefghij", b: "abcdefgxyz", want: 70},
		{name: "unrelated", a: "zzzz", b: "abcdefgh", want: 0},
		{name: "empty", a: "", b: "12 Main Street", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartialRatio(tt.a, tt.b))
		})
	}
}

func TestPartialRatio_NoisyAddress(t *testing.T) {
	score := PartialRatio("12 Main Street Springfield", "Address: 12 Maln Strect, Springfie1d IL")
	assert.GreaterOrEqual(t, score, DefaultAddressThreshold)
}
