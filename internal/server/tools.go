package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": desc,
	}
}

// regionProp describes a rectangle in pixel coordinates, end-exclusive.
func regionProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "skeye_load",
			Description: "Load an image file and return its dimensions and format. Loaded images are cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Template Matching
		{
			Name:        "skeye_search",
			Description: "Find where a template best matches inside an image using colour-plane separation and FFT cross-correlation. Returns the matched rectangle, its centre and a cosine-similarity confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image":    pathProp("Absolute path to the image to search in"),
					"template": pathProp("Absolute path to the image holding the template"),
					"region":   regionProp("Optional part of the template image to use as template. Default: the whole template image"),
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum confidence for the match to count as found. Default 0",
					},
				},
				"required": []string{"image", "template"},
			},
		},
		{
			Name:        "skeye_correlate",
			Description: "Compute the cross-correlation surface of a template over an image and save it as two PNGs: the min-max scaled signal and the positions of its peak.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image":    pathProp("Absolute path to the image to search in"),
					"template": pathProp("Absolute path to the image holding the template"),
					"region":   regionProp("Optional part of the template image to use as template"),
					"signal":   pathProp("Output path for the correlation signal PNG"),
					"winner":   pathProp("Output path for the peak position PNG"),
				},
				"required": []string{"image", "template", "signal", "winner"},
			},
		},
		{
			Name:        "skeye_locate",
			Description: "Locate a labelled object described in a bot script's visual memory inside an image. Runs the descriptor's what/where steps once.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"script": pathProp("Absolute path to the bot script (YAML, JSON or TOML)"),
					"image":  pathProp("Absolute path to the image to search in"),
					"map": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the visual map in the script's memory. Default 0",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Descriptor label to locate",
					},
				},
				"required": []string{"script", "image", "label"},
			},
		},

		// Visualisation
		{
			Name:        "skeye_preview",
			Description: "Render the colour-plane separation of an image: each pixel keeps only the channel the checkerboard filter selects for its position.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProp("Absolute path to the image file"),
					"output": pathProp("Output path for the preview PNG"),
				},
				"required": []string{"path", "output"},
			},
		},
		{
			Name:        "skeye_mark",
			Description: "Draw a rectangle outline on a copy of an image and save it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProp("Absolute path to the image file"),
					"output": pathProp("Output path for the marked image"),
					"region": regionProp("Rectangle to outline"),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as hex, e.g. #ff0000. Default red",
					},
				},
				"required": []string{"path", "output", "region"},
			},
		},
		{
			Name:        "skeye_snippet",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProp("Absolute path to the image file"),
					"region": regionProp("Rectangle to crop"),
				},
				"required": []string{"path", "region"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
