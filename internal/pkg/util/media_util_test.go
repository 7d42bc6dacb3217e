package util

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFileType(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		fileType string
		mime     string
	}{
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "png", "image/png"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg", "image/jpeg"},
		{"gif", []byte("GIF89a"), "gif", "image/gif"},
		{"webp", []byte("RIFF....WEBP"), "webp", "image/webp"},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}, "webm", "video/webm"},
		{"mp4", []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, "mp4", "video/mp4"},
		{"unknown", []byte{0x00, 0x01, 0x02}, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fileType, mime := DetectFileType(tc.data)
			assert.Equal(t, tc.fileType, fileType)
			assert.Equal(t, tc.mime, mime)
		})
	}
}

func TestProbeImageSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))

	width, height := ProbeImageSize(buf.Bytes())
	assert.Equal(t, 64, width)
	assert.Equal(t, 48, height)
}

func TestProbeImageSizeInvalidData(t *testing.T) {
	width, height := ProbeImageSize([]byte("definitely not an image"))
	assert.Zero(t, width)
	assert.Zero(t, height)
}
