package userauth

import (
	"fmt"
	"io"
)

// WriterBannerSink is a BannerSink that writes banner text to an
// io.Writer, e.g. a terminal's stdout when a caller explicitly wants
// banners shown (spec §4.H: silent by default, shown only when a sink
// is registered).
type WriterBannerSink struct {
	w io.Writer
}

// NewWriterBannerSink returns a BannerSink that writes each banner to w
// verbatim, without interpreting language.
func NewWriterBannerSink(w io.Writer) *WriterBannerSink {
	return &WriterBannerSink{w: w}
}

func (s *WriterBannerSink) DisplayBanner(text, language string) {
	fmt.Fprint(s.w, text)
}
