package eml

import (
	"errors"
	"fmt"
	"io"

	"github.com/emersion/go-message"

	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, gbk, etc.)
	// so go-message can transparently decode non-UTF-8 text bodies.
	_ "github.com/emersion/go-message/charset"
)

var ErrMalformed = errors.New("malformed eml message")

// Part is a node in the parsed message tree. Multipart containers carry
// Children and no Body; leaves carry the transfer-decoded Body bytes.
// A Part is never mutated after Parse returns.
type Part struct {
	Disposition string
	Filename    string
	MediaType   string
	Body        []byte
	Children    []*Part
}

// Message is a fully parsed EML file.
type Message struct {
	Subject string
	Root    *Part
}

// Parse reads a single RFC 5322 message and builds its part tree. It fails
// with a wrapped ErrMalformed when the input cannot be parsed as a message;
// unknown charsets are not an error, the affected text is decoded best-effort.
func Parse(r io.Reader) (*Message, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &Message{
		Subject: DecodeHeader(entity.Header.Get("Subject")),
		Root:    buildPart(entity),
	}, nil
}

func buildPart(e *message.Entity) *Part {
	mediaType, _, _ := e.Header.ContentType()
	disposition, dispParams, _ := e.Header.ContentDisposition()

	part := &Part{
		Disposition: disposition,
		MediaType:   mediaType,
		Filename:    DecodeHeader(partFilename(e, dispParams)),
	}

	if mr := e.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				// Keep the parts parsed so far, drop the faulty tail.
				break
			}
			if child == nil {
				break
			}
			part.Children = append(part.Children, buildPart(child))
		}
		return part
	}

	if body, err := io.ReadAll(e.Body); err == nil {
		part.Body = body
	}
	return part
}

// partFilename returns the raw (possibly encoded-word) filename of a part,
// preferring the Content-Disposition filename over the Content-Type name.
func partFilename(e *message.Entity, dispParams map[string]string) string {
	if name := dispParams["filename"]; name != "" {
		return name
	}
	_, ctParams, _ := e.Header.ContentType()
	return ctParams["name"]
}

// Walk visits p and all nested parts depth-first in document order.
func Walk(p *Part, fn func(*Part)) {
	if p == nil {
		return
	}
	fn(p)
	for _, child := range p.Children {
		Walk(child, fn)
	}
}

// Attachments returns every part marked as an attachment that carries both a
// decoded filename and a non-empty payload, in traversal order. Attachment
// parts missing either are deliberately skipped, they cannot be written.
func (m *Message) Attachments() []*Part {
	var attachments []*Part
	Walk(m.Root, func(p *Part) {
		if p.Disposition != "attachment" {
			return
		}
		if p.Filename == "" || len(p.Body) == 0 {
			return
		}
		attachments = append(attachments, p)
	})
	return attachments
}
