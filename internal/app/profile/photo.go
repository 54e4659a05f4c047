package profile

import (
	"bufio"
	"net/http"
	"path/filepath"
	"strings"

	"aqimonitor/internal/pkg/errs"
)

// extToMIME lists the accepted photo extensions and the content type each must sniff as.
var extToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

const sniffLen = 512

// photoType validates the extension of filename and returns it with the expected content type.
func photoType(filename string) (ext, mime string, customErr *errs.CustomError) {
	if strings.TrimSpace(filename) == "" {
		return "", "", errs.NewError(errs.ErrPhotoMissing)
	}

	ext = strings.ToLower(filepath.Ext(filename))
	mime, ok := extToMIME[ext]
	if !ok {
		return "", "", errs.NewError(errs.ErrPhotoTypeInvalid)
	}
	return ext, mime, nil
}

// sniffContent checks that the leading bytes of body match mime.
// The peeked bytes stay buffered in body.
func sniffContent(body *bufio.Reader, mime string) *errs.CustomError {
	head, _ := body.Peek(sniffLen)
	if len(head) == 0 {
		return errs.NewError(errs.ErrPhotoMissing)
	}
	if http.DetectContentType(head) != mime {
		return errs.NewError(errs.ErrPhotoTypeInvalid)
	}
	return nil
}
