package uploads

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/maktabaapp/maktaba-sync/pkg/errcodes"
	"github.com/pkg/errors"
)

// MaxUploadSize is the ceiling for staged book files (100 MiB).
const MaxUploadSize = 100 << 20

// allowedExtensions maps the extensions we stage to the mime types their
// content is allowed to detect as. Detection reads magic bytes, so a renamed
// executable fails even with a valid extension.
var allowedExtensions = map[string]map[string]struct{}{
	".epub": {"application/epub+zip": {}},
	".pdf":  {"application/pdf": {}},
	".cbz":  {"application/zip": {}, "application/vnd.comicbook+zip": {}},
	".jpg":  {"image/jpeg": {}},
	".jpeg": {"image/jpeg": {}},
	".png":  {"image/png": {}},
	".webp": {"image/webp": {}},
}

// Result describes a staged file that passed validation.
type Result struct {
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
}

// Validate checks a staged file's size, extension, and detected content type.
// The reader only needs to supply the file header; mimetype stops after its
// detection buffer.
func Validate(filename string, size int64, r io.Reader) (*Result, error) {
	if size <= 0 {
		return nil, errcodes.ValidationError("File is empty.")
	}
	if size > MaxUploadSize {
		return nil, errcodes.ValidationError("File exceeds the maximum upload size.")
	}

	ext := strings.ToLower(extension(filename))
	expected, ok := allowedExtensions[ext]
	if !ok {
		return nil, errcodes.UnsupportedMediaType()
	}

	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, ok := expected[mtype.String()]; !ok {
		return nil, errcodes.ValidationError("File contents do not match the file extension.")
	}

	return &Result{
		Filename:  filename,
		Extension: ext,
		MimeType:  mtype.String(),
		Size:      size,
	}, nil
}

func extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}
