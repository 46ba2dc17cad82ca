package eml

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// crlf converts \n-separated fixture text to proper CRLF line endings.
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func multipartFixture(subject string, payload []byte) string {
	return crlf(fmt.Sprintf(`From: sender@example.com
To: recipient@example.com
Subject: %s
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/plain; charset="utf-8"

Please find the report attached.
--BOUNDARY
Content-Type: application/pdf; name="report.pdf"
Content-Disposition: attachment; filename="report.pdf"
Content-Transfer-Encoding: base64

%s
--BOUNDARY--
`, subject, base64.StdEncoding.EncodeToString(payload)))
}

func TestParse_Multipart(t *testing.T) {
	payload := []byte("%PDF-1.4 fake pdf content")
	msg, err := Parse(strings.NewReader(multipartFixture("Q4 Report", payload)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if msg.Subject != "Q4 Report" {
		t.Errorf("Subject = %q, want %q", msg.Subject, "Q4 Report")
	}
	if len(msg.Root.Children) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(msg.Root.Children))
	}

	attachments := msg.Attachments()
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	if attachments[0].Filename != "report.pdf" {
		t.Errorf("Filename = %q, want %q", attachments[0].Filename, "report.pdf")
	}
	if !bytes.Equal(attachments[0].Body, payload) {
		t.Errorf("payload not byte-identical after transfer decoding")
	}
}

func TestParse_NestedMultipart(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	raw := crlf(fmt.Sprintf(`Subject: Nested
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="OUTER"

--OUTER
Content-Type: multipart/alternative; boundary="INNER"

--INNER
Content-Type: text/plain

plain body
--INNER
Content-Type: text/html

<p>html body</p>
--INNER--
--OUTER
Content-Type: image/png
Content-Disposition: attachment; filename="chart.png"
Content-Transfer-Encoding: base64

%s
--OUTER--
`, base64.StdEncoding.EncodeToString(payload)))

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	attachments := msg.Attachments()
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment from nested tree, got %d", len(attachments))
	}
	if attachments[0].Filename != "chart.png" {
		t.Errorf("Filename = %q, want %q", attachments[0].Filename, "chart.png")
	}
	if !bytes.Equal(attachments[0].Body, payload) {
		t.Errorf("binary payload corrupted")
	}

	// Document order: alternative container first, attachment leaf last.
	var leaves []string
	Walk(msg.Root, func(p *Part) {
		leaves = append(leaves, p.MediaType)
	})
	want := []string{"multipart/mixed", "multipart/alternative", "text/plain", "text/html", "image/png"}
	if len(leaves) != len(want) {
		t.Fatalf("walked %d parts, want %d (%v)", len(leaves), len(want), leaves)
	}
	for i := range want {
		if leaves[i] != want[i] {
			t.Errorf("walk order[%d] = %q, want %q", i, leaves[i], want[i])
		}
	}
}

func TestParse_SkipsNamelessAndEmptyAttachments(t *testing.T) {
	raw := crlf(`Subject: Edge cases
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: application/octet-stream
Content-Disposition: attachment

bm8gbmFtZQ==
--BOUNDARY
Content-Type: application/octet-stream
Content-Disposition: attachment; filename="empty.bin"

--BOUNDARY--
`)

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := len(msg.Attachments()); got != 0 {
		t.Errorf("expected 0 qualifying attachments, got %d", got)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader("this is not a mime header\r\nstill not one\r\n\r\n"))
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error %v does not wrap ErrMalformed", err)
	}
}

func TestParse_EncodedFilename(t *testing.T) {
	// RFC 2047 encoded-word in the filename parameter (GB2312 for 报告).
	raw := crlf(fmt.Sprintf(`Subject: Encoded name
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="BOUNDARY"

--BOUNDARY
Content-Type: application/pdf
Content-Disposition: attachment; filename="=?GB2312?B?%s?="
Content-Transfer-Encoding: base64

%s
--BOUNDARY--
`,
		base64.StdEncoding.EncodeToString([]byte{0xb1, 0xa8, 0xb8, 0xe6}),
		base64.StdEncoding.EncodeToString([]byte("data"))))

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	attachments := msg.Attachments()
	if len(attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(attachments))
	}
	if attachments[0].Filename != "报告" {
		t.Errorf("Filename = %q, want %q", attachments[0].Filename, "报告")
	}
}
