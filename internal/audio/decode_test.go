package audio

import (
	"math"
	"testing"
)

func sineWave(n int, amp float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = amp * math.Sin(2*math.Pi*float64(i)/48)
	}
	return s
}

func TestEncodeWAV_RoundTrip(t *testing.T) {
	original := sineWave(4800, 0.6)
	encoded := EncodeWAV(original, 48000)

	decoded, rate, err := Decode(encoded, "audio/wav")
	if err != nil {
		t.Fatalf("decode round trip: %v", err)
	}
	if rate != 48000 {
		t.Fatalf("sample rate = %d, want 48000", rate)
	}
	if len(decoded) != len(original) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(original))
	}
	// 16-bit quantization allows one LSB of error.
	for i := range original {
		if math.Abs(decoded[i]-original[i]) > 1.0/32000 {
			t.Fatalf("sample %d: got %v, want %v", i, decoded[i], original[i])
		}
	}
}

func TestEncodeWAV_ClipsOutOfRange(t *testing.T) {
	encoded := EncodeWAV([]float64{2.0, -2.0}, 16000)
	decoded, _, err := Decode(encoded, "audio/wav")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[0] < 0.99 || decoded[1] > -0.99 {
		t.Fatalf("out-of-range samples should clip to full scale, got %v", decoded)
	}
}

func TestDecode_MIMEDispatch(t *testing.T) {
	encoded := EncodeWAV(sineWave(160, 0.5), 16000)

	tests := []struct {
		name string
		mime string
	}{
		{"canonical type", "audio/wav"},
		{"x-wav alias", "audio/x-wav"},
		{"type with parameters", "audio/wav; codecs=1"},
		{"unknown type sniffs RIFF magic", "application/octet-stream"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(encoded, tc.mime); err != nil {
				t.Fatalf("Decode(%q) failed: %v", tc.mime, err)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{
			name: "empty clip",
			data: nil,
			mime: "audio/wav",
		},
		{
			name: "wrong magic",
			data: []byte("JUNKJUNKJUNKJUNK"),
			mime: "audio/wav",
		},
		{
			name: "truncated header",
			data: []byte("RIFF"),
			mime: "audio/wav",
		},
		{
			name: "truncated data chunk",
			data: func() []byte {
				b := EncodeWAV(sineWave(160, 0.5), 16000)
				return b[:60]
			}(),
			mime: "audio/wav",
		},
		{
			name: "garbage mp3",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
			mime: "audio/mpeg",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Decode(tc.data, tc.mime); err == nil {
				t.Fatalf("expected decode error for %s", tc.name)
			}
		})
	}
}

func TestDecodeWAV_StereoMixdown(t *testing.T) {
	// Hand-build a stereo 16-bit WAV whose channels cancel each other. The
	// mixdown should land near silence.
	left := int16(16000)
	right := int16(-16000)
	const frames = 100

	pcm := make([]byte, 0, frames*4)
	for i := 0; i < frames; i++ {
		pcm = append(pcm, byte(uint16(left)), byte(uint16(left)>>8))
		pcm = append(pcm, byte(uint16(right)), byte(uint16(right)>>8))
	}

	var wav []byte
	wav = append(wav, "RIFF"...)
	wav = appendUint32LE(wav, uint32(36+len(pcm)))
	wav = append(wav, "WAVE"...)
	wav = append(wav, "fmt "...)
	wav = appendUint32LE(wav, 16)
	wav = appendUint16LE(wav, 1)
	wav = appendUint16LE(wav, 2) // stereo
	wav = appendUint32LE(wav, 44100)
	wav = appendUint32LE(wav, 44100*4)
	wav = appendUint16LE(wav, 4)
	wav = appendUint16LE(wav, 16)
	wav = append(wav, "data"...)
	wav = appendUint32LE(wav, uint32(len(pcm)))
	wav = append(wav, pcm...)

	samples, rate, err := Decode(wav, "audio/wav")
	if err != nil {
		t.Fatalf("decode stereo wav: %v", err)
	}
	if rate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", rate)
	}
	if len(samples) != frames {
		t.Fatalf("got %d mono samples, want %d", len(samples), frames)
	}
	for i, v := range samples {
		if math.Abs(v) > 0.001 {
			t.Fatalf("sample %d: mixdown of opposite channels = %v, want ~0", i, v)
		}
	}
}
