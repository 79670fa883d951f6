// Package format provides input format detection for scanlift.
package format

import (
	"bytes"
	"mime"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized or unsupported format.
	Unknown Format = iota
	// PDF indicates a PDF document.
	PDF
	// PNG indicates a PNG raster image.
	PNG
	// JPEG indicates a JPEG raster image.
	JPEG
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	default:
		return ""
	}
}

// IsImage reports whether the format is routed to the OCR pipeline.
func (f Format) IsImage() bool {
	return f == PNG || f == JPEG
}

// Detect determines the format from a filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	default:
		return Unknown
	}
}

// FromMIME determines the format from a MIME type such as "image/png".
// Parameters (e.g. "; charset=binary") are ignored.
func FromMIME(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mt {
	case "application/pdf", "application/x-pdf":
		return PDF
	case "image/png":
		return PNG
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return JPEG
	default:
		return Unknown
	}
}

// Resolve picks the format for an upload: the filename extension wins, and the
// MIME hint is consulted only when the name carries no extension at all.
func Resolve(filename, contentType string) Format {
	if filepath.Ext(filename) != "" {
		return Detect(filename)
	}
	return FromMIME(contentType)
}

var (
	magicPDF  = []byte("%PDF")
	magicPNG  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	magicJPEG = []byte{0xFF, 0xD8, 0xFF}
)

// DetectFromMagic checks leading magic bytes to determine the format.
// A PDF header may be preceded by up to 1024 bytes of garbage, which many
// readers tolerate, so the search for "%PDF" is not anchored at offset 0.
func DetectFromMagic(data []byte) Format {
	if len(data) < 3 {
		return Unknown
	}

	if bytes.HasPrefix(data, magicPNG) {
		return PNG
	}
	if bytes.HasPrefix(data, magicJPEG) {
		return JPEG
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, magicPDF) {
		return PDF
	}

	return Unknown
}
