package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// photoSourceProperties is the shared schema fragment for tools that
// accept a photo as a file path or an inline base64 data URL.
func photoSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the photo file (PNG, JPEG, or GIF)",
		},
		"data_url": map[string]interface{}{
			"type":        "string",
			"description": "Inline photo as a base64 data URL (data:image/...;base64,...)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "ocr_process",
			Description: "Recognize text in a photographed menu using the hybrid cloud/local pipeline. Prefers cloud recognition when a credential is configured and falls back to the local engine on failure or low confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(photoSourceProperties(), map[string]interface{}{
					"force_local": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip the cloud path and recognize locally. Default false",
						"default":     false,
					},
					"confidence_floor": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum cloud confidence (0-100) that avoids a local backup attempt. Default 20",
						"default":     20,
					},
					"max_time_ms": map[string]interface{}{
						"type":        "integer",
						"description": "Time budget for the cloud attempt in milliseconds; expiry triggers the local fallback. Default 45000",
						"default":     45000,
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Recognition language hint (e.g., \"eng\"). Default is the server language",
					},
					"skip_preprocess": map[string]interface{}{
						"type":        "boolean",
						"description": "Disable image optimization and local preprocessing. Default false",
						"default":     false,
					},
				}),
			},
		},
		{
			Name:        "ocr_compare_engines",
			Description: "Diagnostic: run both recognition engines on the same photo in parallel and report confidence, time, and word-count deltas plus a recommendation.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": photoSourceProperties(),
			},
		},

		// Engine management
		{
			Name:        "ocr_status",
			Description: "Report coordinator state: which engines are configured, per-engine lifecycle status, and usage statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "ocr_recommendation",
			Description: "Advisory: given device conditions, suggest whether the next recognition should run on the cloud or local engine. Not enforced by ocr_process.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"offline": map[string]interface{}{
						"type":        "boolean",
						"description": "Device has no network connectivity",
					},
					"low_power_mode": map[string]interface{}{
						"type":        "boolean",
						"description": "Device is in a power-saving mode",
					},
					"battery_level": map[string]interface{}{
						"type":        "number",
						"description": "Battery percentage 0-100. Omit when unknown",
					},
				},
			},
		},
		{
			Name:        "ocr_update_credential",
			Description: "Set or replace the cloud recognition credential. An empty credential clears cloud capability; the server keeps running local-only.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"credential": map[string]interface{}{
						"type":        "string",
						"description": "Cloud recognition API key. Empty string clears the cloud path",
					},
				},
			},
		},
		{
			Name:        "ocr_test_credential",
			Description: "Probe the configured cloud credential with a minimal recognition call and report whether it works.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Capture diagnostics
		{
			Name:        "image_optimize",
			Description: "Compute the optimal transmission size for a photo and return it re-encoded at that size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(photoSourceProperties(), map[string]interface{}{
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default 85",
						"default":     85,
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png"},
						"description": "Target encoding. Default jpeg",
					},
					"max_image_size": map[string]interface{}{
						"type":        "integer",
						"description": "Soft byte budget for the encoded payload. 0 means no budget",
					},
				}),
			},
		},
		{
			Name:        "image_quality",
			Description: "Assess whether a capture is good enough to recognize: exposure, contrast, and resolution checks with an aggregate verdict.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": photoSourceProperties(),
			},
		},
	}
}

// merge combines schema property maps; later maps win on key collisions.
func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
