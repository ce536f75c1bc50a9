// Package export renders a completed transcript into its downloadable
// representations. Everything is synthesized from the in-memory result; the
// two rich formats are HTML conveniences, not real PDF or OOXML encoders.
package export

import (
	"fmt"
	"html"
	"strings"

	"server/internal/domain"
)

// Format enumerates the downloadable representations.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatWord Format = "doc"
)

// ValidFormat reports whether the format is one of the three representations.
func ValidFormat(f Format) bool {
	return f == FormatText || f == FormatPDF || f == FormatWord
}

// Allowed reports whether the identity may download the format. Plain text is
// always permitted; the richer formats require a signed-in account above the
// free tier. Locked formats are presentation state, not errors.
func Allowed(acct *domain.Account, f Format) bool {
	if f == FormatText {
		return true
	}
	if acct == nil {
		return false
	}
	return !acct.IsFree()
}

// ContentType returns the MIME type the format is served with.
func ContentType(f Format) string {
	switch f {
	case FormatPDF:
		return "text/html; charset=utf-8"
	case FormatWord:
		return "application/msword"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename derives the download name from the original upload's basename.
func Filename(originalFilename string, f Format) string {
	base := originalFilename
	if dot := strings.Index(base, "."); dot >= 0 {
		base = base[:dot]
	}
	switch f {
	case FormatWord:
		return base + "_transcript.doc"
	default:
		return base + "_transcript.txt"
	}
}

// Text renders the literal transcript bytes with no transformation.
func Text(res domain.TranscriptionResult) []byte {
	return []byte(res.Transcript)
}

// PrintableHTML renders the document handed to the platform's print dialog.
func PrintableHTML(res domain.TranscriptionResult) []byte {
	var b strings.Builder
	b.WriteString("<html>\n<head><title>Transcript - ")
	b.WriteString(html.EscapeString(res.Filename))
	b.WriteString("</title></head>\n")
	b.WriteString(`<body style="font-family: Arial, sans-serif; padding: 20px; line-height: 1.6;">` + "\n")
	fmt.Fprintf(&b, `<h1 style="color: #333;">Transcript: %s</h1>`+"\n", html.EscapeString(res.Filename))
	b.WriteString(`<div style="background: #f5f5f5; padding: 15px; border-radius: 8px; margin: 20px 0;">` + "\n")
	fmt.Fprintf(&b, "<p><strong>Language:</strong> %s</p>\n", html.EscapeString(res.Language))
	fmt.Fprintf(&b, "<p><strong>Duration:</strong> %.1f minutes</p>\n", res.DurationMinutes)
	fmt.Fprintf(&b, "<p><strong>Confidence:</strong> %d%%</p>\n", int(res.Confidence*100+0.5))
	fmt.Fprintf(&b, "<p><strong>Date:</strong> %s</p>\n", res.CompletedAt.Format("1/2/2006"))
	b.WriteString("</div>\n")
	b.WriteString(`<div style="border-top: 2px solid #333; padding-top: 20px;">` + "\n")
	fmt.Fprintf(&b, `<p style="font-size: 16px;">%s</p>`+"\n", html.EscapeString(res.Transcript))
	b.WriteString("</div>\n</body>\n</html>\n")
	return []byte(b.String())
}

// WordHTML renders the Word-compatible document: HTML served under a Word
// content type with a .doc name.
func WordHTML(res domain.TranscriptionResult) []byte {
	var b strings.Builder
	b.WriteString("<html>\n<head><meta charset=\"utf-8\"><title>Transcript - ")
	b.WriteString(html.EscapeString(res.Filename))
	b.WriteString("</title></head>\n")
	b.WriteString(`<body style="font-family: Arial, sans-serif; padding: 20px;">` + "\n")
	fmt.Fprintf(&b, "<h1>Transcript: %s</h1>\n", html.EscapeString(res.Filename))
	fmt.Fprintf(&b, "<p><strong>Language:</strong> %s</p>\n", html.EscapeString(res.Language))
	fmt.Fprintf(&b, "<p><strong>Duration:</strong> %.1f minutes</p>\n", res.DurationMinutes)
	fmt.Fprintf(&b, "<p><strong>Date:</strong> %s</p>\n", res.CompletedAt.Format("1/2/2006"))
	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, `<p style="line-height: 1.6;">%s</p>`+"\n", html.EscapeString(res.Transcript))
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String())
}

// Render dispatches to the representation for the format.
func Render(res domain.TranscriptionResult, f Format) []byte {
	switch f {
	case FormatPDF:
		return PrintableHTML(res)
	case FormatWord:
		return WordHTML(res)
	default:
		return Text(res)
	}
}
