package track

import (
	"github.com/juju/errors"
	"github.com/pion/webrtc/v3"
)

// Kind is the media kind of a track.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

func (k Kind) String() string {
	return string(k)
}

// ParseKind parses "audio" or "video" the way pion parses the kind of an SDP
// media section, so the comparison ignores case.
func ParseKind(str string) (Kind, error) {
	kind, err := KindFromCodecType(webrtc.NewRTPCodecType(str))

	return kind, errors.Annotatef(err, "track kind %q", str)
}

// KindFromCodecType converts the codec type of a pion track to a Kind.
func KindFromCodecType(codecType webrtc.RTPCodecType) (Kind, error) {
	switch codecType {
	case webrtc.RTPCodecTypeAudio:
		return KindAudio, nil
	case webrtc.RTPCodecTypeVideo:
		return KindVideo, nil
	default:
		return "", errors.NotValidf("codec type %s", codecType)
	}
}
