package multipart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "test-boundary-42"

func buildBody(t *testing.T, lineBreak string, binary []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("--" + testBoundary + lineBreak)
	buf.WriteString(`Content-Disposition: form-data; name="label"` + lineBreak)
	buf.WriteString(lineBreak)
	buf.WriteString("cat" + lineBreak)
	buf.WriteString("--" + testBoundary + lineBreak)
	buf.WriteString(`Content-Disposition: form-data; name="img"; filename="cat.png"` + lineBreak)
	buf.WriteString("Content-Type: image/png" + lineBreak)
	buf.WriteString(lineBreak)
	buf.Write(binary)
	buf.WriteString(lineBreak)
	buf.WriteString("--" + testBoundary + "--" + lineBreak)
	return buf.Bytes()
}

func TestParse_RoundTrip(t *testing.T) {
	binary := []byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x01, 0x0D, 0x0A, 0xFF, 0xFE}

	parts, err := Parse(buildBody(t, "\r\n", binary), testBoundary)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	assert.Equal(t, "label", parts[0].Name)
	assert.False(t, parts[0].IsFile())
	assert.Equal(t, []byte("cat"), parts[0].Data)

	assert.Equal(t, "img", parts[1].Name)
	assert.True(t, parts[1].IsFile())
	assert.Equal(t, "cat.png", parts[1].Filename)
	assert.Equal(t, "image/png", parts[1].ContentType)
	assert.Equal(t, binary, parts[1].Data)
}

func TestParse_ToleratesBareLineFeeds(t *testing.T) {
	binary := []byte("binary\npayload\nwith\nline\nfeeds")

	parts, err := Parse(buildBody(t, "\n", binary), testBoundary)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, []byte("cat"), parts[0].Data)
	assert.Equal(t, binary, parts[1].Data)
}

func TestParse_PayloadContainingLineBreaks(t *testing.T) {
	// Only the single line break before the boundary belongs to the
	// delimiter; internal breaks are payload.
	binary := []byte("first line\r\nsecond line\r\n")

	parts, err := Parse(buildBody(t, "\r\n", binary), testBoundary)
	require.NoError(t, err)
	assert.Equal(t, binary, parts[1].Data)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		boundary string
	}{
		{
			name:     "boundary absent from body",
			body:     "some unrelated content",
			boundary: testBoundary,
		},
		{
			name:     "empty boundary",
			body:     "--x\r\n\r\ndata\r\n--x--",
			boundary: "",
		},
		{
			name:     "part without header block",
			body:     "--" + testBoundary + "\r\nno blank line here--" + testBoundary + "--",
			boundary: testBoundary,
		},
		{
			name:     "part without disposition name",
			body:     "--" + testBoundary + "\r\nContent-Type: text/plain\r\n\r\ndata\r\n--" + testBoundary + "--",
			boundary: testBoundary,
		},
		{
			name:     "zero parts",
			body:     "--" + testBoundary + "--",
			boundary: testBoundary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Parse([]byte(tt.body), tt.boundary)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, parts)
		})
	}
}

func TestParse_IgnoresPreambleAndEpilogue(t *testing.T) {
	body := "preamble junk\r\n" +
		"--" + testBoundary + "\r\n" +
		`Content-Disposition: form-data; name="weight"` + "\r\n" +
		"\r\n" +
		"0.7\r\n" +
		"--" + testBoundary + "--\r\n" +
		"epilogue junk"

	parts, err := Parse([]byte(body), testBoundary)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "weight", parts[0].Name)
	assert.Equal(t, []byte("0.7"), parts[0].Data)
}
