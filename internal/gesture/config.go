package gesture

import "github.com/dshills/composer/internal/input/key"

// Config holds gesture limits and modifiers.
type Config struct {
	// MinSize and MaxSize bound box-sized elements, in device pixels.
	MinSize float64
	MaxSize float64

	// MinFontSize and MaxFontSize bound text elements.
	MinFontSize float64
	MaxFontSize float64

	// SnapDegrees is the rotation step used while SnapModifier is held.
	SnapDegrees  float64
	SnapModifier key.Modifier

	// PanModifier engages canvas panning. A press with it held is ignored
	// and a gesture in progress is aborted when it appears.
	PanModifier key.Modifier

	// HandleRadius is the hit radius of corner and rotate handles.
	HandleRadius float64

	// RotateHandleOffset is the distance of the rotate handle above the
	// element's top edge.
	RotateHandleOffset float64
}

// DefaultConfig returns the default gesture configuration.
func DefaultConfig() Config {
	return Config{
		MinSize:            30,
		MaxSize:            4000,
		MinFontSize:        12,
		MaxFontSize:        500,
		SnapDegrees:        45,
		SnapModifier:       key.ModShift,
		PanModifier:        key.ModAlt,
		HandleRadius:       12,
		RotateHandleOffset: 24,
	}
}

// normalized fills zero fields from DefaultConfig.
func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MinSize <= 0 {
		c.MinSize = d.MinSize
	}
	if c.MaxSize < c.MinSize {
		c.MaxSize = d.MaxSize
	}
	if c.MinFontSize <= 0 {
		c.MinFontSize = d.MinFontSize
	}
	if c.MaxFontSize < c.MinFontSize {
		c.MaxFontSize = d.MaxFontSize
	}
	if c.SnapDegrees <= 0 {
		c.SnapDegrees = d.SnapDegrees
	}
	if c.HandleRadius <= 0 {
		c.HandleRadius = d.HandleRadius
	}
	if c.RotateHandleOffset <= 0 {
		c.RotateHandleOffset = d.RotateHandleOffset
	}
	return c
}
