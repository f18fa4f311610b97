package source

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// gstErrorCategory classifies GStreamer errors for logging/telemetry
type gstErrorCategory int

const (
	gstErrNetwork gstErrorCategory = iota
	gstErrCodec
	gstErrAuth
	gstErrUnknown
)

func (c gstErrorCategory) String() string {
	switch c {
	case gstErrNetwork:
		return "network"
	case gstErrCodec:
		return "codec"
	case gstErrAuth:
		return "auth"
	default:
		return "unknown"
	}
}

var (
	authKeywords    = []string{"unauthorized", "401", "403", "forbidden", "authentication", "credentials"}
	codecKeywords   = []string{"codec", "decode", "format", "negotiation", "caps", "h264", "no decoder", "missing plugin"}
	networkKeywords = []string{"connection", "timeout", "unreachable", "network", "dns", "resolve", "socket", "tcp", "rtsp", "could not connect"}
)

// classifyGstError categorizes a GStreamer error by message heuristics.
// go-gst's GError does not expose Domain(), so keyword matching is the
// only available classification.
func classifyGstError(gerr *gst.GError) gstErrorCategory {
	if gerr == nil {
		return gstErrUnknown
	}

	combined := strings.ToLower(gerr.Error() + " " + gerr.DebugString())

	for _, kw := range authKeywords {
		if strings.Contains(combined, kw) {
			return gstErrAuth
		}
	}
	for _, kw := range codecKeywords {
		if strings.Contains(combined, kw) {
			return gstErrCodec
		}
	}
	for _, kw := range networkKeywords {
		if strings.Contains(combined, kw) {
			return gstErrNetwork
		}
	}
	return gstErrUnknown
}
