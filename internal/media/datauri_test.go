package media

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// минимальный PNG-заголовок, которого достаточно для определения типа
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestParse(t *testing.T) {
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	m, err := Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", m.MIMEType)
	assert.Equal(t, []byte("jpeg-bytes"), m.Data)
	assert.Equal(t, uri, m.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want error
	}{
		{"no scheme", "image/png;base64,AAAA", ErrNotDataURI},
		{"no comma", "data:image/png;base64", ErrNotDataURI},
		{"not base64 flag", "data:text/plain,hello", ErrNotBase64},
		{"bad payload", "data:image/png;base64,@@@", ErrNotBase64},
		{"empty payload", "data:image/png;base64,", ErrEmptyMedia},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.uri)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromUpload(t *testing.T) {
	uri, err := FromUpload(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngHeader), uri)

	_, err = FromUpload([]byte("just some text"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = FromUpload(nil)
	assert.ErrorIs(t, err, ErrEmptyMedia)
}

func TestEncode_DetectsType(t *testing.T) {
	m, err := Parse(Encode("", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", m.MIMEType)
}
