package filetype

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info describes a file detected from its content.
type Info struct {
	MIMEType  string
	Extension string
	// Image is true for raster formats a page stage can read.
	Image bool
}

// Detector identifies files by magic bytes, never by name.
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs the file at path.
func (d *Detector) Detect(path string) (*Info, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := &Info{MIMEType: mtype.String(), Extension: mtype.Extension()}

	if strings.HasPrefix(info.MIMEType, "image/") {
		info.Image = true
	} else if kind, ok := sniffNetpbm(path); ok {
		// mimetype may not know netpbm, which scanadf writes
		info.MIMEType, info.Extension, info.Image = kind, ".pnm", true
	}
	log.Debug().Str("mime", info.MIMEType).Str("file", path).Bool("image", info.Image).Msg("detected file type")
	return info, nil
}

// IsPageImage reports whether path holds a raster image.
func (d *Detector) IsPageImage(path string) (bool, error) {
	info, err := d.Detect(path)
	if err != nil {
		return false, err
	}
	return info.Image, nil
}

var netpbmKinds = map[byte]string{
	'1': "image/x-portable-bitmap",
	'2': "image/x-portable-graymap",
	'3': "image/x-portable-pixmap",
	'4': "image/x-portable-bitmap",
	'5': "image/x-portable-graymap",
	'6': "image/x-portable-pixmap",
	'7': "image/x-portable-arbitrarymap",
}

func sniffNetpbm(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	head := make([]byte, 3)
	n, _ := f.Read(head)
	if n < 3 || head[0] != 'P' || !bytes.ContainsAny(head[2:3], " \t\r\n") {
		return "", false
	}
	kind, ok := netpbmKinds[head[1]]
	return kind, ok
}
