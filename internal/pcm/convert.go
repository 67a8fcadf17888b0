package pcm

// StereoToMono downmixes interleaved 16-bit stereo PCM to mono by averaging
// the left and right samples of each frame. The average is computed in
// int32 to avoid overflow and clamped to the int16 range.
func StereoToMono(stereo []byte) []byte {
	frames := len(stereo) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		left := int32(int16(stereo[i*4]) | int16(stereo[i*4+1])<<8)
		right := int32(int16(stereo[i*4+2]) | int16(stereo[i*4+3])<<8)
		avg := (left + right) / 2
		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}
		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// ResampleMono16 resamples 16-bit mono PCM from srcRate to dstRate using
// linear interpolation. If the rates match (or either is non-positive) the
// input is returned unchanged.
func ResampleMono16(mono []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(mono) < 2 {
		return mono
	}
	srcSamples := len(mono) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)
	for i := 0; i < dstSamples; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := int16(mono[idx*2]) | int16(mono[idx*2+1])<<8
		s1 := s0
		if idx+1 < srcSamples {
			s1 = int16(mono[(idx+1)*2]) | int16(mono[(idx+1)*2+1])<<8
		}

		sample := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(sample)
		out[i*2+1] = byte(sample >> 8)
	}
	return out
}
