package types

import "encoding/json"

// Rights is per-item rights metadata read from item metadata, with
// permissive defaults for items ingested without explicit rights.
type Rights struct {
	License             string `json:"license"`
	Consent             string `json:"consent"`
	Visibility          string `json:"visibility"`
	AttributionRequired bool   `json:"attribution_required"`
}

// DefaultRights is what an item without rights metadata carries.
func DefaultRights() Rights {
	return Rights{
		License:             "CC-BY",
		Consent:             "granted",
		Visibility:          "public",
		AttributionRequired: false,
	}
}

// RightsFromMetadata overlays explicit rights keys from item metadata on
// the defaults. Malformed metadata falls back to the defaults.
func RightsFromMetadata(metadata []byte) Rights {
	rights := DefaultRights()
	if len(metadata) == 0 {
		return rights
	}
	var m map[string]any
	if err := json.Unmarshal(metadata, &m); err != nil {
		return rights
	}
	if v, ok := m["license"].(string); ok && v != "" {
		rights.License = v
	}
	if v, ok := m["consent"].(string); ok && v != "" {
		rights.Consent = v
	}
	if v, ok := m["visibility"].(string); ok && v != "" {
		rights.Visibility = v
	}
	if v, ok := m["attribution_required"].(bool); ok {
		rights.AttributionRequired = v
	}
	return rights
}

// Provenance records where a result or corpus item came from.
type Provenance struct {
	SourceID    string `json:"source_id"`
	Citation    string `json:"citation"`
	CollectedBy string `json:"collected_by"`
	CollectedAt string `json:"collected_at"`
	Method      string `json:"method"`
}
