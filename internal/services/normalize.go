package services

import "encoding/json"

// NormalizeTracks collapses every recommendation payload shape into a
// flat track sequence. Providers may return a plain sequence, a mapping
// with a "tracks" sequence, a mapping with a nested "playlist.tracks"
// sequence, or something else entirely; unrecognized mappings and
// scalars are wrapped as a single-element sequence so their content
// stays inspectable. This never fails: undecodable input yields an
// empty sequence.
func NormalizeTracks(raw []byte) []any {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return []any{}
	}
	return normalizePayload(payload)
}

func normalizePayload(payload any) []any {
	switch v := payload.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	case map[string]any:
		if tracks, ok := v["tracks"].([]any); ok {
			return tracks
		}
		if playlist, ok := v["playlist"].(map[string]any); ok {
			if tracks, ok := playlist["tracks"].([]any); ok {
				return tracks
			}
		}
		return []any{v}
	default:
		return []any{v}
	}
}
