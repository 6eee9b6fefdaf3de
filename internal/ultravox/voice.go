package ultravox

import (
	"encoding/json"
	"regexp"
)

// The platform addresses voices two ways: native voices are referenced by
// UUID (or well-known name) and passed as a plain string, while externally
// licensed clones (ElevenLabs) need a dynamic voice definition object.

const (
	externalVoiceName = "Custom Voice"
	elevenLabsModel   = "eleven_turbo_v2_5"
	shortIDMaxLength  = 30
)

var uuidShape = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Voice is a tagged reference to either a platform-native voice or an
// external TTS provider voice. The zero value marshals as an empty string.
type Voice struct {
	native   string
	external *externalVoice
}

type externalVoice struct {
	Provider string
	VoiceID  string
	Model    string
}

// NativeVoice references a voice hosted by the call platform itself.
func NativeVoice(id string) Voice { return Voice{native: id} }

// ElevenLabsVoice references an externally licensed ElevenLabs voice clone.
func ElevenLabsVoice(voiceID string) Voice {
	return Voice{external: &externalVoice{Provider: "elevenLabs", VoiceID: voiceID, Model: elevenLabsModel}}
}

// ResolveVoice maps a bare identifier string onto a tagged Voice. A canonical
// UUID is a native platform voice; a short opaque identifier is assumed to be
// an ElevenLabs voice id. Callers that know the provider should construct the
// Voice directly instead of relying on this shape heuristic.
func ResolveVoice(id string) Voice {
	if id == "" || uuidShape.MatchString(id) {
		return NativeVoice(id)
	}
	if len(id) < shortIDMaxLength {
		return ElevenLabsVoice(id)
	}
	return NativeVoice(id)
}

// IsNative reports whether the voice is platform-native.
func (v Voice) IsNative() bool { return v.external == nil }

// ID returns the raw voice identifier.
func (v Voice) ID() string {
	if v.external != nil {
		return v.external.VoiceID
	}
	return v.native
}

// MarshalJSON emits a plain string for native voices and a dynamic voice
// definition for external ones, matching the call-creation wire format.
func (v Voice) MarshalJSON() ([]byte, error) {
	if v.external == nil {
		return json.Marshal(v.native)
	}
	type providerRef struct {
		VoiceID string `json:"voiceId"`
		Model   string `json:"model"`
	}
	payload := struct {
		Name       string                 `json:"name"`
		Definition map[string]providerRef `json:"definition"`
	}{
		Name: externalVoiceName,
		Definition: map[string]providerRef{
			v.external.Provider: {VoiceID: v.external.VoiceID, Model: v.external.Model},
		},
	}
	return json.Marshal(payload)
}
