// Package image holds the upload gate for the gallery: which files are
// accepted, what content type they are stored with, and how they are named
// in the object store.
package image

import (
	"fmt"
	"strings"
)

// Format is one of the image encodings the gallery accepts.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
)

const defaultContentType = "application/octet-stream"

// allowedMIMETypes are the declared content types accepted on upload.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// FormatOf maps a lower-cased extension (without the dot) to its Format.
func FormatOf(ext string) Format {
	switch ext {
	case "jpg", "jpeg":
		return FormatJPEG
	case "png":
		return FormatPNG
	default:
		return FormatUnknown
	}
}

// ContentType returns the MIME type objects of this format are stored with.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return defaultContentType
	}
}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}

// Extension returns the lower-cased text after the last dot of filename,
// or "" when there is none.
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// IsImageKey reports whether a stored key carries one of the accepted
// image extensions.
func IsImageKey(key string) bool {
	return FormatOf(Extension(key)) != FormatUnknown
}

// ContentType derives the stored content type from a filename's extension.
func ContentType(filename string) string {
	return FormatOf(Extension(filename)).ContentType()
}

// Reason identifies which upload check failed.
type Reason int

const (
	ReasonMissingName Reason = iota + 1
	ReasonExtension
	ReasonMIME
)

// ValidationError is returned by Validate for files the gallery refuses.
type ValidationError struct {
	Reason   Reason
	Filename string
	MIME     string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingName:
		return "image: no file name"
	case ReasonExtension:
		return fmt.Sprintf("image: extension of %q not allowed", e.Filename)
	case ReasonMIME:
		return fmt.Sprintf("image: content type %q not allowed", e.MIME)
	default:
		return "image: invalid upload"
	}
}

// Validate checks the extension and the declared MIME type of an upload.
// The content itself is never inspected.
func Validate(filename, mimeType string) error {
	if filename == "" {
		return &ValidationError{Reason: ReasonMissingName}
	}
	if FormatOf(Extension(filename)) == FormatUnknown {
		return &ValidationError{Reason: ReasonExtension, Filename: filename}
	}
	if !allowedMIMETypes[mimeType] {
		return &ValidationError{Reason: ReasonMIME, Filename: filename, MIME: mimeType}
	}
	return nil
}

// IsAcceptable reports whether Validate accepts the upload.
func IsAcceptable(filename, mimeType string) bool {
	return Validate(filename, mimeType) == nil
}
