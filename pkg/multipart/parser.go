// Package multipart decodes a raw multipart/form-data body into its named
// parts. It is a pure byte-level parser: the caller derives the boundary
// token from the content-type header and bounds the body size before
// calling Parse.
package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("malformed multipart body")

// Part is one decoded section of a multipart body. Filename and
// ContentType are empty for plain fields.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// IsFile reports whether the part was submitted as a file field.
func (p Part) IsFile() bool {
	return p.Filename != ""
}

var (
	nameRe        = regexp.MustCompile(`(?i);\s*name="([^"]*)"`)
	filenameRe    = regexp.MustCompile(`(?i);\s*filename="([^"]*)"`)
	contentTypeRe = regexp.MustCompile(`(?i)content-type:\s*([^\r\n]+)`)
)

// Parse splits body on the boundary delimiter and returns the decoded parts
// in order. Both \r\n and \n line endings are tolerated. Parsing fails when
// the boundary does not occur in the body, when a part lacks a parseable
// header block or a Content-Disposition name, or when no parts result.
func Parse(body []byte, boundary string) ([]Part, error) {
	if boundary == "" {
		return nil, fmt.Errorf("%w: empty boundary", ErrMalformed)
	}

	delimiter := []byte("--" + boundary)
	if !bytes.Contains(body, delimiter) {
		return nil, fmt.Errorf("%w: boundary %q not present", ErrMalformed, boundary)
	}

	segments := bytes.Split(body, delimiter)

	var parts []Part
	// segments[0] is the preamble before the first boundary and is ignored.
	for _, segment := range segments[1:] {
		// The closing delimiter carries a trailing "--"; everything after
		// it is epilogue.
		if bytes.HasPrefix(segment, []byte("--")) {
			break
		}

		segment = trimLeadingBreak(segment)

		header, data, ok := splitHeaderBlock(segment)
		if !ok {
			return nil, fmt.Errorf("%w: part without header block", ErrMalformed)
		}

		nameMatch := nameRe.FindSubmatch(header)
		if nameMatch == nil || len(nameMatch[1]) == 0 {
			return nil, fmt.Errorf("%w: part without a disposition name", ErrMalformed)
		}

		part := Part{
			Name: string(nameMatch[1]),
			Data: trimTrailingBreak(data),
		}
		if m := filenameRe.FindSubmatch(header); m != nil {
			part.Filename = string(m[1])
		}
		if m := contentTypeRe.FindSubmatch(header); m != nil {
			part.ContentType = string(bytes.TrimSpace(m[1]))
		}

		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts found", ErrMalformed)
	}
	return parts, nil
}

// splitHeaderBlock separates the header lines of a part from its payload.
// The header block ends at the first blank line.
func splitHeaderBlock(segment []byte) (header, data []byte, ok bool) {
	offset := 0
	for offset < len(segment) {
		next := bytes.IndexByte(segment[offset:], '\n')
		if next < 0 {
			return nil, nil, false
		}
		line := bytes.TrimSuffix(segment[offset:offset+next], []byte("\r"))
		if len(line) == 0 {
			return segment[:offset], segment[offset+next+1:], true
		}
		offset += next + 1
	}
	return nil, nil, false
}

// trimLeadingBreak removes the single line break that follows the boundary
// line.
func trimLeadingBreak(segment []byte) []byte {
	if bytes.HasPrefix(segment, []byte("\r\n")) {
		return segment[2:]
	}
	if bytes.HasPrefix(segment, []byte("\n")) {
		return segment[1:]
	}
	return segment
}

// trimTrailingBreak removes the single line break that precedes the next
// boundary. It belongs to the delimiter, not the payload.
func trimTrailingBreak(data []byte) []byte {
	if bytes.HasSuffix(data, []byte("\r\n")) {
		return data[:len(data)-2]
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		return data[:len(data)-1]
	}
	return data
}
