// Package audio decodes raw 16-bit PCM speech into per-channel float frames
// and hands decoded buffers to an output sink.
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// SpeechSampleRate is the fixed rate of synthesized speech.
	SpeechSampleRate = 24000
	// SpeechChannels is the channel count of synthesized speech.
	SpeechChannels = 1
)

// Buffer is decoded audio: Frames[c][i] is frame i of channel c, in [-1, 1).
type Buffer struct {
	SampleRate int
	Channels   int
	Frames     [][]float32
}

// FrameCount is the number of frames per channel.
func (b *Buffer) FrameCount() int {
	if len(b.Frames) == 0 {
		return 0
	}
	return len(b.Frames[0])
}

// Duration is the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.FrameCount()) * time.Second / time.Duration(b.SampleRate)
}

// Decode interprets data as signed 16-bit little-endian PCM interleaved by
// channel. A trailing partial frame is dropped. It never fails; a
// non-positive channel count is treated as mono.
func Decode(data []byte, sampleRate, channels int) *Buffer {
	if channels <= 0 {
		channels = 1
	}
	frameCount := len(data) / 2 / channels

	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     make([][]float32, channels),
	}
	for c := 0; c < channels; c++ {
		buf.Frames[c] = make([]float32, frameCount)
	}

	for i := 0; i < frameCount; i++ {
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			sample := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			buf.Frames[c][i] = float32(sample) / 32768.0
		}
	}
	return buf
}

// interleave is the inverse of Decode, as int16-range samples in frame
// order. Samples are clamped.
func interleave(buf *Buffer) []int {
	frames := buf.FrameCount()
	out := make([]int, 0, frames*buf.Channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < buf.Channels; c++ {
			out = append(out, int(toInt16(buf.Frames[c][i])))
		}
	}
	return out
}

func toInt16(s float32) int16 {
	v := s * 32768.0
	switch {
	case v >= 32767:
		return 32767
	case v <= -32768:
		return -32768
	default:
		return int16(v)
	}
}
