package capture

// CaptureOptions are caller supplied photo capture options. Nil fields are
// filled in from Defaults.
//
// The capture target can be given either by name or as an already encoded
// backend code. The name takes precedence when both are set.
type CaptureOptions struct {
	MaxSize           *int        `json:"maxSize,omitempty"`
	MaxJPEGQuality    *float64    `json:"maxJpegQuality,omitempty"`
	CaptureTarget     *Target     `json:"captureTarget,omitempty"`
	CaptureTargetCode *TargetCode `json:"captureTargetCode,omitempty"`
}

// FlashOptions are caller supplied flash options.
type FlashOptions struct {
	FlashMode *FlashMode `json:"flashMode,omitempty"`
}

// CaptureSettings is a fully resolved set of capture options as sent to the
// backend.
type CaptureSettings struct {
	MaxSize        int        `json:"maxSize"`
	MaxJPEGQuality float64    `json:"maxJpegQuality"`
	CaptureTarget  TargetCode `json:"captureTarget"`
}

// FlashSettings is a fully resolved set of flash options.
type FlashSettings struct {
	FlashMode FlashMode `json:"flashMode"`
}

// Int returns a pointer to v, for use in option literals.
func Int(v int) *int {
	return &v
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// TargetPtr returns a pointer to v.
func TargetPtr(v Target) *Target {
	return &v
}

// Flash returns a pointer to v.
func Flash(v FlashMode) *FlashMode {
	return &v
}
