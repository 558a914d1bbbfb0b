// Package server implements the MCP (Model Context Protocol) server for the
// skeye vision tools.
//
// This package provides a JSON-RPC 2.0 server that exposes colour-plane
// template matching and bot-script descriptors through the MCP protocol, so
// an MCP client can find things on screenshots without driving the desktop.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - skeye_load: Load image and get metadata
//
// Template Matching:
//   - skeye_search: Best match of a template inside an image
//   - skeye_correlate: Save the correlation surface and its peak as PNGs
//   - skeye_locate: Run a bot script descriptor against an image
//
// Visualisation:
//   - skeye_preview: Render the colour-plane separation of an image
//   - skeye_mark: Outline a rectangle on a copy of an image
//   - skeye_snippet: Crop a region and return it as base64 PNG
//
// All rectangles are given as x1, y1, x2, y2 pixel coordinates with x2 and y2
// exclusive.
//
// # Image Caching
//
// Decoded images are cached by path, and separated colour planes reuse
// cached filters by image shape. Both caches live as long as the server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(log, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("server stopped")
//	}
package server
