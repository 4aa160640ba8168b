// Package audio упаковывает PCM от модели синтеза речи в WAV.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Формат, который отдает модель синтеза речи
const (
	SampleRate  = 24000
	BitDepth    = 16
	NumChannels = 1
	// WAVE_FORMAT_PCM
	pcmFormat = 1
)

var (
	ErrEmptyPCM   = errors.New("audio: empty PCM data")
	ErrOddPCM     = errors.New("audio: PCM data is not a whole number of 16-bit samples")
	ErrInvalidWAV = errors.New("audio: invalid WAV container")
)

// seekableBuffer - буфер в памяти, реализующий io.WriteSeeker для wav.Encoder
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.pos + offset
	case io.SeekEnd:
		next = int64(len(s.buf)) + offset
	default:
		return 0, fmt.Errorf("audio: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("audio: negative seek position %d", next)
	}
	s.pos = next
	return next, nil
}

// EncodeWAV оборачивает сырой PCM (mono, 24 кГц, s16le) в контейнер RIFF/WAVE
func EncodeWAV(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyPCM
	}
	if len(pcm)%2 != 0 {
		return nil, ErrOddPCM
	}

	out := &seekableBuffer{}
	enc := wav.NewEncoder(out, SampleRate, BitDepth, NumChannels, pcmFormat)

	buf := &goaudio.IntBuffer{
		Data:           pcmToInts(pcm),
		Format:         &goaudio.Format{SampleRate: SampleRate, NumChannels: NumChannels},
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("audio: failed to write to WAV encoder: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("audio: failed to finalize WAV: %w", err)
	}
	return out.buf, nil
}

// DecodeWAV возвращает PCM-байты из WAV (s16le)
func DecodeWAV(data []byte) ([]byte, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: failed to read PCM: %w", err)
	}
	return intsToPCM(buf.Data), nil
}

// Duration возвращает длительность PCM в секундах
func Duration(pcmLen int) float64 {
	return float64(pcmLen) / float64(SampleRate*NumChannels*BitDepth/8)
}

func pcmToInts(pcm []byte) []int {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return samples
}

func intsToPCM(samples []int) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(s)))
	}
	return pcm
}
