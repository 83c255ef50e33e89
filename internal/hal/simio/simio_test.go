package simio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecorder(t *testing.T) {
	r := NewRecorder()
	assert.NotNil(t, r.PWM)
	assert.Equal(t, uint16(0), r.ServoUs)
	assert.False(t, r.BuzzerOn)
	assert.Equal(t, 0, r.WriteCount)
}

func TestRecorder_WritePWM(t *testing.T) {
	tests := []struct {
		name    string
		channel int
		duty    uint8
	}{
		{name: "fan channel at zero duty", channel: 0, duty: 0},
		{name: "fan channel at half duty", channel: 0, duty: 128},
		{name: "second channel at full duty", channel: 1, duty: 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecorder()
			r.WritePWM(tt.channel, tt.duty)
			assert.Equal(t, tt.duty, r.PWM[tt.channel])
			assert.Equal(t, 1, r.WriteCount)
		})
	}
}

func TestRecorder_WriteServoUs(t *testing.T) {
	r := NewRecorder()
	r.WriteServoUs(1500)
	assert.Equal(t, uint16(1500), r.ServoUs)
	assert.Equal(t, 1, r.WriteCount)
}

func TestRecorder_ToneOnOff(t *testing.T) {
	r := NewRecorder()

	r.ToneOn(2000)
	assert.True(t, r.BuzzerOn)
	assert.Equal(t, 2000, r.BuzzerFreq)

	r.ToneOff()
	assert.False(t, r.BuzzerOn)
	assert.Equal(t, 0, r.BuzzerFreq)
}

func TestRecorder_WriteCountAccumulates(t *testing.T) {
	r := NewRecorder()
	r.WritePWM(0, 50)
	r.WritePWM(1, 75)
	r.WriteServoUs(1200)

	assert.Equal(t, 3, r.WriteCount)
}
