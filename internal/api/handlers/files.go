package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".heic": "image/heic",
	".heif": "image/heif",
	".pdf":  "application/pdf",
}

// detectMimeType resolves the upload's MIME type from its extension.
// Only scanned-document formats are accepted.
func detectMimeType(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mime, ok := mimeByExt[ext]
	if !ok {
		return "", fmt.Errorf("unsupported file type: %s", filename)
	}
	return mime, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return data, nil
}
