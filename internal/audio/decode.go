package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"mime"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// Decode converts an encoded clip into mono float64 samples in [-1, 1] plus
// the sample rate. The declared MIME type picks the decoder; an unknown type
// falls back to sniffing the RIFF magic.
func Decode(data []byte, mimeType string) ([]float64, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("audio: empty clip")
	}
	switch normalizeMIME(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return decodeWAV(data)
	case "audio/mpeg", "audio/mp3":
		return decodeMP3(data)
	default:
		if len(data) >= 4 && string(data[:4]) == "RIFF" {
			return decodeWAV(data)
		}
		return decodeMP3(data)
	}
}

func normalizeMIME(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

// decodeMP3 drains a go-mp3 decoder. The decoder emits 16-bit little-endian
// stereo frames regardless of the source layout, so each pair of channel
// samples is averaged into one mono sample.
func decodeMP3(data []byte) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("audio: mp3 decode: %w", err)
	}

	buf := make([]byte, 4096)
	var samples []float64
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			for i := 0; i+3 < n; i += 4 {
				l := int16(buf[i]) | int16(buf[i+1])<<8
				r := int16(buf[i+2]) | int16(buf[i+3])<<8
				samples = append(samples, (float64(l)+float64(r))/2/32768.0)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("audio: mp3 read: %w", err)
		}
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("audio: mp3 contains no samples")
	}
	return samples, decoder.SampleRate(), nil
}

// decodeWAV walks the RIFF chunk list, accepting 16-bit and 8-bit PCM plus
// 32-bit IEEE float data. Multi-channel data is mixed down by averaging.
func decodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("audio: not a RIFF/WAVE stream")
	}

	var (
		audioFormat   uint16
		numChannels   uint16
		sampleRate    uint32
		bitsPerSample uint16
		pcm           []byte
		haveFmt       bool
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		off += 8
		if size < 0 || off+size > len(data) {
			return nil, 0, fmt.Errorf("audio: truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("audio: short fmt chunk")
			}
			audioFormat = binary.LittleEndian.Uint16(data[off : off+2])
			numChannels = binary.LittleEndian.Uint16(data[off+2 : off+4])
			sampleRate = binary.LittleEndian.Uint32(data[off+4 : off+8])
			bitsPerSample = binary.LittleEndian.Uint16(data[off+14 : off+16])
			haveFmt = true
		case "data":
			pcm = data[off : off+size]
		}
		off += size
		if size%2 == 1 {
			off++ // chunks are word-aligned
		}
	}

	if !haveFmt || pcm == nil {
		return nil, 0, fmt.Errorf("audio: missing fmt or data chunk")
	}
	if numChannels == 0 {
		return nil, 0, fmt.Errorf("audio: zero channels")
	}

	ch := int(numChannels)
	var samples []float64

	switch {
	case audioFormat == 1 && bitsPerSample == 16:
		frame := 2 * ch
		for pos := 0; pos+frame <= len(pcm); pos += frame {
			var sum float64
			for c := 0; c < ch; c++ {
				s := int16(binary.LittleEndian.Uint16(pcm[pos+2*c:]))
				sum += float64(s) / 32768.0
			}
			samples = append(samples, sum/float64(ch))
		}
	case audioFormat == 1 && bitsPerSample == 8:
		// 8-bit PCM is unsigned with a 128 midpoint.
		for pos := 0; pos+ch <= len(pcm); pos += ch {
			var sum float64
			for c := 0; c < ch; c++ {
				sum += (float64(pcm[pos+c]) - 128) / 128.0
			}
			samples = append(samples, sum/float64(ch))
		}
	case audioFormat == 3 && bitsPerSample == 32:
		frame := 4 * ch
		for pos := 0; pos+frame <= len(pcm); pos += frame {
			var sum float64
			for c := 0; c < ch; c++ {
				bits := binary.LittleEndian.Uint32(pcm[pos+4*c:])
				sum += float64(math.Float32frombits(bits))
			}
			samples = append(samples, sum/float64(ch))
		}
	default:
		return nil, 0, fmt.Errorf("audio: unsupported wav format %d (%d-bit)", audioFormat, bitsPerSample)
	}

	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("audio: wav contains no samples")
	}
	return samples, int(sampleRate), nil
}
