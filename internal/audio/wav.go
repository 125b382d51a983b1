package audio

// EncodeWAV wraps mono samples in a 16-bit PCM RIFF container. Samples are
// clipped to [-1, 1] before quantization.
func EncodeWAV(samples []float64, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	buf = append(buf, "RIFF"...)
	buf = appendUint32LE(buf, uint32(36+dataLen))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = appendUint32LE(buf, 16)
	buf = appendUint16LE(buf, 1) // PCM
	buf = appendUint16LE(buf, numChannels)
	buf = appendUint32LE(buf, uint32(sampleRate))
	buf = appendUint32LE(buf, uint32(sampleRate*numChannels*bitsPerSample/8))
	buf = appendUint16LE(buf, numChannels*bitsPerSample/8)
	buf = appendUint16LE(buf, bitsPerSample)

	buf = append(buf, "data"...)
	buf = appendUint32LE(buf, uint32(dataLen))
	for _, v := range samples {
		if v > 1 {
			v = 1
		}
		if v < -1 {
			v = -1
		}
		buf = appendUint16LE(buf, uint16(int16(v*32767)))
	}
	return buf
}

func appendUint32LE(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendUint16LE(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}
