package util

import (
	"bytes"

	"github.com/disintegration/imaging"
)

var magicTable = []struct {
	prefix   []byte
	fileType string
	mime     string
}{
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "png", "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg", "image/jpeg"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "gif", "image/gif"},
	{[]byte("RIFF"), "webp", "image/webp"},
	{[]byte{0x1A, 0x45, 0xDF, 0xA3}, "webm", "video/webm"},
}

// DetectFileType 通过文件头判断产物类型，识别失败时返回空串，由调用方决定兜底
func DetectFileType(data []byte) (fileType string, mime string) {
	for _, m := range magicTable {
		if bytes.HasPrefix(data, m.prefix) {
			return m.fileType, m.mime
		}
	}
	// mp4 的 ftyp box 不在首字节
	if len(data) > 11 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return "mp4", "video/mp4"
	}
	return "", ""
}

// ProbeImageSize 解码图片获取宽高，视频或解码失败时返回 0
func ProbeImageSize(data []byte) (width, height int) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}
