package layer

// Default geometry for new layers.
const (
	DefaultPosition = 50.0
	DefaultBoxSize  = 200.0
	DefaultFontSize = 72.0
)

// Defaults returns the payload fields a new layer of kind k starts with.
// Caller-supplied fields are merged over these.
func Defaults(k Kind) map[string]any {
	switch k {
	case KindText:
		return map[string]any{
			KeyX:         DefaultPosition,
			KeyY:         DefaultPosition,
			KeyFontSize:  DefaultFontSize,
			KeyTransform: map[string]any{KeyRotation: 0.0},
			"content":    "TEXT",
			"color":      "#0d7533",
			"textAlign":  "center",
			"fontWeight": 700,
		}
	case KindSticker, KindIcon, KindVideo, KindFrame:
		return map[string]any{
			KeyX:        DefaultPosition,
			KeyY:        DefaultPosition,
			KeyWidth:    DefaultBoxSize,
			KeyHeight:   DefaultBoxSize,
			KeyRotation: 0.0,
			"opacity":   1.0,
			"flipX":     false,
			"flipY":     false,
		}
	case KindBackground:
		return map[string]any{
			"type":  "white",
			"value": "white",
			"alpha": 1.0,
		}
	default:
		return map[string]any{}
	}
}
