package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

const wavHeaderSize = 44

// wavWriter streams s16le PCM into a canonical WAV file. The header is
// written as a placeholder up front and patched with the final sizes on
// Finalize, so a crashed session leaves an obviously truncated file rather
// than a silently wrong one.
type wavWriter struct {
	file       *os.File
	sampleRate int
	channels   int
	dataLen    int
}

func newWAVWriter(file *os.File, sampleRate, channels int) (*wavWriter, error) {
	w := &wavWriter{file: file, sampleRate: sampleRate, channels: channels}
	if err := w.writeHeader(); err != nil {
		return nil, fmt.Errorf("failed to write wav header: %w", err)
	}
	return w, nil
}

func (w *wavWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	w.dataLen += n
	return n, err
}

// DataLen returns how many PCM bytes have been written.
func (w *wavWriter) DataLen() int { return w.dataLen }

// Finalize patches the header sizes and closes the file.
func (w *wavWriter) Finalize() error {
	if _, err := w.file.Seek(0, 0); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to rewind wav file: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize wav header: %w", err)
	}
	return w.file.Close()
}

func (w *wavWriter) writeHeader() error {
	header := make([]byte, wavHeaderSize)
	byteRate := w.sampleRate * w.channels * 2
	blockAlign := w.channels * 2

	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+w.dataLen))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16)
	binary.LittleEndian.PutUint16(header[20:], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:], uint16(w.channels))
	binary.LittleEndian.PutUint32(header[24:], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:], 16) // bits per sample
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(w.dataLen))

	_, err := w.file.Write(header)
	return err
}
