// Package encoding normalises bank exports to UTF-8. Portuguese banks still
// hand out Windows-1252 files next to UTF-8 and UTF-16 ones.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset is the name of a detected encoding.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF8BOM     Charset = "UTF-8 BOM"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO88599    Charset = "ISO-8859-9"
)

const sampleSize = 4096

var boms = []struct {
	prefix  []byte
	charset Charset
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8BOM},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// Detect guesses the charset of sample. A byte order mark wins, then valid
// UTF-8, then chardet; anything else is read as Windows-1252.
func Detect(sample []byte) Charset {
	for _, b := range boms {
		if bytes.HasPrefix(sample, b.prefix) {
			return b.charset
		}
	}

	if utf8.Valid(sample) {
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return Windows1252
	}

	switch result.Charset {
	case "UTF-8":
		return UTF8
	case "ISO-8859-9":
		return ISO88599
	}

	return Windows1252
}

func (c Charset) decoder() *xenc.Decoder {
	switch c {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	case ISO88599:
		return charmap.ISO8859_9.NewDecoder()
	case Windows1252:
		return charmap.Windows1252.NewDecoder()
	}

	return nil
}

// NewUTF8Reader returns a reader that yields r decoded to UTF-8, without
// a UTF-8 byte order mark.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sampleSize)

	sample, err := br.Peek(sampleSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	charset := Detect(sample)

	switch charset {
	case UTF8:
		return br, nil
	case UTF8BOM:
		_, _ = br.Discard(3)
		return br, nil
	}

	return transform.NewReader(br, charset.decoder()), nil
}
