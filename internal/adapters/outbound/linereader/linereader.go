// Package linereader streams decoded source lines from disk.
package linereader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/dakshscra/scra/internal/domain"
	"golang.org/x/text/encoding/charmap"
)

// MaxLineBytes bounds the bytes kept for a single line. Every line longer
// than this exceeds domain.MaxLineLength characters whatever its encoding, so
// such lines are delivered cut to this size and never evaluated.
const MaxLineBytes = 4 * (domain.MaxLineLength + 1)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader implements domain.SourceReader.
type Reader struct {
	enc domain.Encoding
}

// New creates a Reader decoding with enc. An empty encoding means auto.
func New(enc domain.Encoding) *Reader {
	if enc == "" {
		enc = domain.EncodingAuto
	}
	return &Reader{enc: enc}
}

// ReadLines calls fn for every line of the file at path until fn returns
// false. Lines are numbered from 1 and passed without their terminator.
func (r *Reader) ReadLines(path string, fn func(n int, line string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	latin1 := charmap.ISO8859_1.NewDecoder()
	buf := make([]byte, 0, 1024)

	for n := 1; ; n++ {
		raw, readErr := readLine(br, buf[:0])
		buf = raw
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}
		if errors.Is(readErr, io.EOF) && len(raw) == 0 {
			return nil
		}
		if n == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}

		var line string
		if len(raw) > MaxLineBytes {
			// a cut line only needs to stay over the evaluation cap
			line = string(raw[:MaxLineBytes])
		} else {
			switch {
			case r.enc == domain.EncodingUTF8:
				if !utf8.Valid(raw) {
					return fmt.Errorf("%w: line %d is not valid utf-8", domain.ErrUndecodable, n)
				}
				line = string(raw)
			case r.enc == domain.EncodingLatin1 || !utf8.Valid(raw):
				decoded, err := latin1.Bytes(raw)
				if err != nil {
					return fmt.Errorf("%w: line %d: %v", domain.ErrUndecodable, n, err)
				}
				line = string(decoded)
			default:
				line = string(raw)
			}
		}

		if !fn(n, line) {
			return nil
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}

// readLine reads the next line without its terminator. "\n", "\r\n" and a
// lone "\r" all end a line. At most MaxLineBytes+1 bytes are kept so an
// over-long line is still recognisable. io.EOF is returned with the final
// unterminated line, or with nothing once the input is exhausted.
func readLine(br *bufio.Reader, dst []byte) ([]byte, error) {
	for {
		if br.Buffered() == 0 {
			if _, err := br.Peek(1); err != nil {
				return dst, err
			}
		}
		buf, _ := br.Peek(br.Buffered())
		i := bytes.IndexAny(buf, "\r\n")
		if i < 0 {
			dst = appendCapped(dst, buf)
			_, _ = br.Discard(len(buf))
			continue
		}
		dst = appendCapped(dst, buf[:i])
		cr := buf[i] == '\r'
		_, _ = br.Discard(i + 1)
		if cr {
			if next, err := br.Peek(1); err == nil && next[0] == '\n' {
				_, _ = br.Discard(1)
			}
		}
		return dst, nil
	}
}

func appendCapped(dst, b []byte) []byte {
	room := MaxLineBytes + 1 - len(dst)
	if room <= 0 {
		return dst
	}
	if len(b) > room {
		b = b[:room]
	}
	return append(dst, b...)
}
