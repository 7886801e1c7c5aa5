package preview

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// Kind tells the display side how a file can be shown when opened.
type Kind string

const (
	KindNone  Kind = "none"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
	KindPDF   Kind = "pdf"
)

// KindFor picks the display kind for a content type. Audio and video are
// played from the raw content at display time; PDFs get a download offer.
func KindFor(contentType string) Kind {
	mt := mediaType(contentType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio
	case strings.HasPrefix(mt, "video/"):
		return KindVideo
	case mt == "application/pdf":
		return KindPDF
	default:
		return KindNone
	}
}

// Inline reports whether content of this kind can be rendered in place.
func (k Kind) Inline() bool {
	return k == KindImage || k == KindAudio || k == KindVideo
}

// Label is the short type shown under a file name: the MIME subtype, or
// "File" when there is none.
func Label(contentType string) string {
	_, sub, ok := strings.Cut(mediaType(contentType), "/")
	if !ok || sub == "" {
		return "File"
	}
	return sub
}

// HumanSize formats a byte count for display, e.g. "1.5 KiB".
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
