package siminput

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSource_DefaultsEveryChannel(t *testing.T) {
	s := NewSource()
	assert.Equal(t, [3]int32{defaultRaw, defaultRaw, defaultRaw}, s.Raws())
}

func TestSource_SetRaw(t *testing.T) {
	tests := []struct {
		name  string
		probe int
		raw   int32
		want  [3]int32
	}{
		{
			name:  "pit channel",
			probe: 0,
			raw:   12000,
			want:  [3]int32{12000, defaultRaw, defaultRaw},
		},
		{
			name:  "meat1 channel",
			probe: 1,
			raw:   20000,
			want:  [3]int32{defaultRaw, 20000, defaultRaw},
		},
		{
			name:  "meat2 channel",
			probe: 2,
			raw:   500,
			want:  [3]int32{defaultRaw, defaultRaw, 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSource()
			s.SetRaw(tt.probe, tt.raw)
			assert.Equal(t, tt.want, s.Raws())
		})
	}
}

func TestSource_SetRaw_OutOfRangeIgnored(t *testing.T) {
	s := NewSource()
	before := s.Raws()

	s.SetRaw(-1, 999)
	s.SetRaw(3, 999)

	assert.Equal(t, before, s.Raws())
}
