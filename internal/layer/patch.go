package layer

// Reserved patch keys routed to record metadata.
const (
	KeyID       = "id"
	KeyVisible  = "visible"
	KeyLocked   = "locked"
	KeyZIndex   = "zIndex"
	KeyStart    = "start"
	KeyDuration = "duration"
)

// Geometry payload keys.
const (
	KeyX         = "x"
	KeyY         = "y"
	KeyWidth     = "width"
	KeyHeight    = "height"
	KeyRotation  = "rotation"
	KeyFontSize  = "fontSize"
	KeyTransform = "transform"
	KeyScale     = "scale"
)

var geometryKeys = map[string]bool{
	KeyX:         true,
	KeyY:         true,
	KeyWidth:     true,
	KeyHeight:    true,
	KeyRotation:  true,
	KeyFontSize:  true,
	KeyTransform: true,
	KeyScale:     true,
}

// IsGeometryKey reports whether key changes a layer's position, size or
// rotation.
func IsGeometryKey(key string) bool {
	return geometryKeys[key]
}

// IsReservedKey reports whether key addresses record metadata rather than
// the payload.
func IsReservedKey(key string) bool {
	switch key {
	case KeyID, KeyVisible, KeyLocked, KeyZIndex, KeyStart, KeyDuration:
		return true
	default:
		return false
	}
}

// Patch is a shallow update to a layer.
//
// Nested objects such as transform are replaced wholesale; callers that want
// to change one nested field must supply the full merged object.
type Patch map[string]any

// HasGeometry reports whether p touches any geometry key.
func (p Patch) HasGeometry() bool {
	for k := range p {
		if IsGeometryKey(k) {
			return true
		}
	}
	return false
}

// WithoutGeometry returns a copy of p with geometry keys removed.
func (p Patch) WithoutGeometry() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if !IsGeometryKey(k) {
			out[k] = v
		}
	}
	return out
}
