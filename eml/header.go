package eml

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// wordDecoder decodes RFC 2047 encoded-words (=?charset?B?...?=) with
// per-word charsets. Unknown charsets fall back to UTF-8 with invalid byte
// substitution instead of failing, so header decoding never drops a word.
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, r io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "", "us-ascii", "utf-8":
			return utf8Fallback(r)
		}
		enc, _ := ianaindex.MIME.Encoding(charset)
		if enc == nil {
			enc, _ = ianaindex.IANA.Encoding(charset)
		}
		if enc == nil {
			return utf8Fallback(r)
		}
		return enc.NewDecoder().Reader(r), nil
	},
}

// utf8Fallback reads r and replaces invalid UTF-8 sequences with U+FFFD.
func utf8Fallback(r io.Reader) (io.Reader, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(strings.ToValidUTF8(string(b), "�")), nil
}

// DecodeHeader decodes an internationalized header value. Adjacent encoded
// words are concatenated with no separator; a value that cannot be decoded
// is kept as-is. The result is always valid UTF-8, invalid byte sequences
// are substituted. An absent header decodes to the empty string.
func DecodeHeader(value string) string {
	if value == "" {
		return ""
	}
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		decoded = value
	}
	return strings.ToValidUTF8(decoded, "�")
}
