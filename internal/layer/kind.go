package layer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when a kind name does not match any Kind.
var ErrUnknownKind = errors.New("unknown layer kind")

// Kind identifies the type of a layer.
type Kind uint8

const (
	// KindBackground is the single document background. It is always the
	// bottom layer and is never reordered or deleted.
	KindBackground Kind = iota
	// KindText is a text element.
	KindText
	// KindSticker is an image sticker.
	KindSticker
	// KindIcon is a vector icon.
	KindIcon
	// KindVideo is a video or footage element.
	KindVideo
	// KindFrame is a decorative frame.
	KindFrame

	kindCount
)

// elementKinds lists every kind that lives in a per-kind document array,
// in document order.
var elementKinds = []Kind{KindText, KindSticker, KindIcon, KindVideo, KindFrame}

// ElementKinds returns every kind except KindBackground.
func ElementKinds() []Kind {
	out := make([]Kind, len(elementKinds))
	copy(out, elementKinds)
	return out
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "background"
	case KindText:
		return "text"
	case KindSticker:
		return "sticker"
	case KindIcon:
		return "icon"
	case KindVideo:
		return "video"
	case KindFrame:
		return "frame"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// IsElement reports whether k is stored in a per-kind array.
func (k Kind) IsElement() bool {
	return k.Valid() && k != KindBackground
}

// Timed reports whether layers of this kind carry their own timeline
// placement. Untimed kinds span the whole document duration.
func (k Kind) Timed() bool {
	switch k {
	case KindVideo:
		return true
	case KindBackground, KindText, KindSticker, KindIcon, KindFrame:
		return false
	default:
		return false
	}
}

// ParseKind parses a kind name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "background", "bg":
		return KindBackground, nil
	case "text":
		return KindText, nil
	case "sticker":
		return KindSticker, nil
	case "icon":
		return KindIcon, nil
	case "video":
		return KindVideo, nil
	case "frame":
		return KindFrame, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
