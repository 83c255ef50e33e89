// Package simio provides the only hal.Outputs implementation in this
// repository. There is no real PWM/servo/buzzer peripheral to drive on a
// desktop or CI host, so Recorder just remembers the last write of each
// kind — the same role itohio-golpm's lpm.Mock plays for its Device
// interface.
package simio

// Recorder is a hal.Outputs that records every write for inspection by
// tests; in cmd/pitclawd nothing reads it back (there is no physical
// board attached).
type Recorder struct {
	PWM        map[int]uint8
	ServoUs    uint16
	BuzzerOn   bool
	BuzzerFreq int

	WriteCount int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{PWM: make(map[int]uint8)}
}

func (r *Recorder) WritePWM(channel int, duty uint8) {
	r.PWM[channel] = duty
	r.WriteCount++
}

func (r *Recorder) WriteServoUs(us uint16) {
	r.ServoUs = us
	r.WriteCount++
}

func (r *Recorder) ToneOn(freqHz int) {
	r.BuzzerOn = true
	r.BuzzerFreq = freqHz
}

func (r *Recorder) ToneOff() {
	r.BuzzerOn = false
	r.BuzzerFreq = 0
}
