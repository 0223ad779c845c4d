package models

// DeviceType is the remote service's device classification. Values outside the known set are kept verbatim.
type DeviceType string

const (
	DeviceComputer   DeviceType = "Computer"
	DeviceSmartphone DeviceType = "Smartphone"
	DeviceSpeaker    DeviceType = "Speaker"
	DeviceTV         DeviceType = "TV"
	DeviceAVR        DeviceType = "AVR"
	DeviceSTB        DeviceType = "STB"
	DeviceDongle     DeviceType = "AudioDongle"
	DeviceConsole    DeviceType = "GameConsole"
	DeviceCastVideo  DeviceType = "CastVideo"
	DeviceCastAudio  DeviceType = "CastAudio"
	DeviceAutomobile DeviceType = "Automobile"
)

var deviceIcons = map[DeviceType]string{
	DeviceComputer:   "💻",
	DeviceSmartphone: "📱",
	DeviceSpeaker:    "🔊",
	DeviceTV:         "📺",
	DeviceAVR:        "🎛️",
	DeviceSTB:        "📦",
	DeviceDongle:     "🎧",
	DeviceConsole:    "🎮",
	DeviceCastVideo:  "📺",
	DeviceCastAudio:  "🔊",
	DeviceAutomobile: "🚗",
}

// Icon returns a display glyph for the device type.
func (d DeviceType) Icon() string {
	if icon, ok := deviceIcons[d]; ok {
		return icon
	}
	return "❓"
}

// Device is a remote output endpoint.
type Device struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          DeviceType `json:"type"`
	IsActive      bool       `json:"is_active"`
	IsRestricted  bool       `json:"is_restricted"`
	VolumePercent int        `json:"volume_percent"`
}

// PlaybackContext is the collection (album, playlist, artist) the remote player is playing from.
type PlaybackContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// Playback is the server-reported player state from GET /me/player or GET /me/player/currently-playing.
type Playback struct {
	Device     *Device          `json:"device,omitempty"`
	Context    *PlaybackContext `json:"context"`
	Item       *Track           `json:"item"`
	IsPlaying  bool             `json:"is_playing"`
	ProgressMS int              `json:"progress_ms"`
}

// HasContext reports whether the server reports an enclosing playback context.
func (p *Playback) HasContext() bool {
	return p != nil && p.Context != nil && p.Context.URI != ""
}

// PlayOffset selects the starting item inside a context.
type PlayOffset struct {
	Position int `json:"position"`
}

// PlayRequest is the body of PUT /me/player/play. URIs and ContextURI are mutually exclusive.
type PlayRequest struct {
	URIs       []string    `json:"uris,omitempty"`
	ContextURI string      `json:"context_uri,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
}

// IsEmpty reports whether the request carries no body, meaning "resume whatever was playing".
func (r PlayRequest) IsEmpty() bool {
	return len(r.URIs) == 0 && r.ContextURI == "" && r.Offset == nil
}
