package midi

// MIDI status bytes
const (
	NoteOn    uint8 = 0x90
	NoteOff   uint8 = 0x80
	PitchBend uint8 = 0xE0
	Meta      uint8 = 0xFF
)

// Meta event types read from score files
const (
	MetaText      uint8 = 0x01
	MetaTrackName uint8 = 0x03
	MetaLyric     uint8 = 0x05
	MetaMarker    uint8 = 0x06
	MetaTempo     uint8 = 0x51
	MetaTimeSig   uint8 = 0x58
	MetaKeySig    uint8 = 0x59
)

// DrumChannel is General MIDI channel 10
const DrumChannel uint8 = 9

// bendRange is the default pitch bend range in semitones
const bendRange = 2.0

// parseMeta splits a raw meta event into its type and payload
func parseMeta(raw []byte) (typ uint8, data []byte, ok bool) {
	if len(raw) < 3 || raw[0] != Meta {
		return 0, nil, false
	}
	typ = raw[1]
	n, size := 0, 0
	for i := 2; i < len(raw) && i < 6; i++ {
		size++
		n = n<<7 | int(raw[i]&0x7f)
		if raw[i]&0x80 == 0 {
			break
		}
	}
	start := 2 + size
	if start > len(raw) || start+n > len(raw) {
		return 0, nil, false
	}
	return typ, raw[start : start+n], true
}

// parsePitchBend reads a pitch bend message as a signed offset from centre
// (-8192..8191)
func parsePitchBend(raw []byte) (channel uint8, value int, ok bool) {
	if len(raw) < 3 || raw[0]&0xf0 != PitchBend {
		return 0, 0, false
	}
	return raw[0] & 0x0f, int(raw[1]&0x7f) | int(raw[2]&0x7f)<<7 - 8192, true
}

// bendSemitones converts a pitch bend offset to semitones
func bendSemitones(value int) float64 {
	return float64(value) / 8192 * bendRange
}

// tempoMicros decodes a set-tempo payload (microseconds per quarter)
func tempoMicros(data []byte) (int, bool) {
	if len(data) != 3 {
		return 0, false
	}
	return int(data[0])<<16 | int(data[1])<<8 | int(data[2]), true
}

// timeSig decodes a time signature payload
func timeSig(data []byte) (num, den int, ok bool) {
	if len(data) < 2 || data[0] == 0 || data[1] > 6 {
		return 0, 0, false
	}
	return int(data[0]), 1 << data[1], true
}

// keySig decodes a key signature payload; sharps is negative for flats
func keySig(data []byte) (sharps int, minor bool, ok bool) {
	if len(data) != 2 {
		return 0, false, false
	}
	sharps = int(int8(data[0]))
	if sharps < -7 || sharps > 7 {
		return 0, false, false
	}
	return sharps, data[1] == 1, true
}
