package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/tally/internal/encoding"
)

const header = "Descrição;Montante\nCafé;12,50\nOperação;-3,00\n"

func encode(t *testing.T, enc interface{ Bytes([]byte) ([]byte, error) }, s string) []byte {
	t.Helper()

	b, err := enc.Bytes([]byte(s))
	require.NoError(t, err)

	return b
}

func TestNewUTF8Reader(t *testing.T) {
	type testCase struct {
		name    string
		input   []byte
		charset encoding.Charset // empty when left to chardet
	}

	tests := []testCase{
		{
			name:    "UTF8Passthrough",
			input:   []byte(header),
			charset: encoding.UTF8,
		},
		{
			name:    "UTF8BOMStripped",
			input:   append([]byte{0xEF, 0xBB, 0xBF}, header...),
			charset: encoding.UTF8BOM,
		},
		{
			name:    "Windows1252",
			input: encode(t, charmap.Windows1252.NewEncoder(), header),
		},
		{
			name:    "UTF16LE",
			input:   encode(t, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder(), header),
			charset: encoding.UTF16LE,
		},
		{
			name:    "UTF16BE",
			input:   encode(t, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder(), header),
			charset: encoding.UTF16BE,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.charset != "" {
				assert.Equal(t, tc.charset, encoding.Detect(tc.input))
			}

			r, err := encoding.NewUTF8Reader(bytes.NewReader(tc.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, header, string(got))
		})
	}
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := encoding.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
