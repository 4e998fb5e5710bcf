package image

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAcceptable(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		mime     string
		want     bool
	}{
		{"upper case jpg", "photo.JPG", "image/jpeg", true},
		{"jpeg", "photo.jpeg", "image/jpeg", true},
		{"png", "shot.png", "image/png", true},
		{"pdf extension", "doc.pdf", "image/jpeg", false},
		{"text mime", "photo.jpg", "text/plain", false},
		{"no extension", "noext", "image/jpeg", false},
		{"empty name", "", "image/jpeg", false},
		{"trailing dot", "photo.", "image/jpeg", false},
		{"gif", "anim.gif", "image/gif", false},
		// Only the declared type is checked, so a mismatched pair still passes.
		{"png declared as jpeg", "shot.png", "image/jpeg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAcceptable(tt.filename, tt.mime))
		})
	}
}

func TestValidateReasons(t *testing.T) {
	var verr *ValidationError

	require.True(t, errors.As(Validate("", "image/png"), &verr))
	assert.Equal(t, ReasonMissingName, verr.Reason)

	require.True(t, errors.As(Validate("doc.pdf", "image/png"), &verr))
	assert.Equal(t, ReasonExtension, verr.Reason)

	require.True(t, errors.As(Validate("a.png", "text/html"), &verr))
	assert.Equal(t, ReasonMIME, verr.Reason)
	assert.Contains(t, verr.Error(), "text/html")

	assert.NoError(t, Validate("a.png", "image/png"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", ContentType("a.jpg"))
	assert.Equal(t, "image/jpeg", ContentType("a.JPEG"))
	assert.Equal(t, "image/png", ContentType("a.png"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bmp"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}

func TestIsImageKey(t *testing.T) {
	assert.True(t, IsImageKey("a1_x.jpg"))
	assert.True(t, IsImageKey("c3_z.PNG"))
	assert.False(t, IsImageKey("b2_y.txt"))
	assert.False(t, IsImageKey("plain"))
}
