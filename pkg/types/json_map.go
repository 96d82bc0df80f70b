package types

import (
	"encoding/json"
	"fmt"
)

// JSONMap stores an arbitrary JSON object, used for gateway payloads.
type JSONMap map[string]any

// JSONMapFrom decodes raw JSON into a map. Non-object payloads are wrapped
// under "raw" so nothing the gateway sent is lost.
func JSONMapFrom(raw []byte) JSONMap {
	if len(raw) == 0 {
		return JSONMap{}
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		return JSONMap{"raw": string(raw)}
	}
	return decoded
}

// JSONMapOf marshals v through JSON into a map.
func JSONMapOf(v any) (JSONMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}
	return JSONMapFrom(raw), nil
}
