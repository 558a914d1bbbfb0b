package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/config"
	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/mark"
	"github.com/ironsheep/skeye/internal/match"
	"github.com/ironsheep/skeye/internal/percept"
	"github.com/ironsheep/skeye/internal/script"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "skeye_search", "skeye_mark").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "skeye_load":
		return s.handleLoad(args)
	case "skeye_search":
		return s.handleSearch(args)
	case "skeye_correlate":
		return s.handleCorrelate(args)
	case "skeye_locate":
		return s.handleLocate(ctx, args)
	case "skeye_preview":
		return s.handlePreview(args)
	case "skeye_mark":
		return s.handleMark(args)
	case "skeye_snippet":
		return s.handleSnippet(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// Rect is a rectangle in pixel coordinates; X2 and Y2 are exclusive.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r Rect) roi() geom.ROI {
	return geom.FromRect(image.Rect(r.X1, r.Y1, r.X2, r.Y2))
}

func rectOf(roi geom.ROI) Rect {
	b := roi.Rect()
	return Rect{X1: b.Min.X, Y1: b.Min.Y, X2: b.Max.X, Y2: b.Max.Y}
}

// MatchResult reports where a template or descriptor was found.
type MatchResult struct {
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	Truncated  bool    `json:"truncated,omitempty"`
	Region     Rect    `json:"region"`
	CenterX    int     `json:"center_x"`
	CenterY    int     `json:"center_y"`
}

// separated loads path through the cache and separates its colour planes.
func (s *Server) separated(path string) (*mat.Dense, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return s.planes.Separate(img)
}

// template loads the template image and crops it to region when given.
func (s *Server) template(path string, region *Rect) (*mat.Dense, error) {
	data, err := s.separated(path)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return data, nil
	}
	return geom.Crop(data, region.roi())
}

// === Image Information ===

type loadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a loadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return capture.Info(s.cache, a.Path)
}

// === Template Matching ===

type searchArgs struct {
	Image         string  `json:"image"`
	Template      string  `json:"template"`
	Region        *Rect   `json:"region"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) handleSearch(args json.RawMessage) (interface{}, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	scene, err := s.separated(a.Image)
	if err != nil {
		return nil, err
	}
	template, err := s.template(a.Template, a.Region)
	if err != nil {
		return nil, err
	}

	m, err := match.Search(scene, template)
	if err != nil {
		return nil, err
	}
	roi := m.Region()
	x, y := roi.Center().XY()
	return &MatchResult{
		Found:      m.Confidence >= a.MinConfidence,
		Confidence: m.Confidence,
		Truncated:  m.Truncated,
		Region:     rectOf(roi),
		CenterX:    x,
		CenterY:    y,
	}, nil
}

type correlateArgs struct {
	Image    string `json:"image"`
	Template string `json:"template"`
	Region   *Rect  `json:"region"`
	Signal   string `json:"signal"`
	Winner   string `json:"winner"`
}

// CorrelateResult lists the files written and the surface peak.
type CorrelateResult struct {
	Signal string  `json:"signal"`
	Winner string  `json:"winner"`
	PeakX  int     `json:"peak_x"`
	PeakY  int     `json:"peak_y"`
	Peak   float64 `json:"peak"`
}

func (s *Server) handleCorrelate(args json.RawMessage) (interface{}, error) {
	var a correlateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Signal == "" || a.Winner == "" {
		return nil, errors.New("signal and winner output paths are required")
	}
	scene, err := s.separated(a.Image)
	if err != nil {
		return nil, err
	}
	template, err := s.template(a.Template, a.Region)
	if err != nil {
		return nil, err
	}

	surface, err := match.Correlate(scene, template)
	if err != nil {
		return nil, err
	}
	if err := mark.SaveSurface(a.Signal, surface); err != nil {
		return nil, err
	}
	if err := mark.SaveWinner(a.Winner, surface); err != nil {
		return nil, err
	}

	data := surface.RawMatrix().Data
	peak := floats.MaxIdx(data)
	_, cols := surface.Dims()
	return &CorrelateResult{
		Signal: a.Signal,
		Winner: a.Winner,
		PeakX:  peak % cols,
		PeakY:  peak / cols,
		Peak:   data[peak],
	}, nil
}

// LocateResult reports where a descriptor was found, in image coordinates.
type LocateResult struct {
	Label   string `json:"label"`
	Region  Rect   `json:"region"`
	CenterX int    `json:"center_x"`
	CenterY int    `json:"center_y"`
}

type locateArgs struct {
	Script string `json:"script"`
	Image  string `json:"image"`
	Map    int    `json:"map"`
	Label  string `json:"label"`
}

func (s *Server) handleLocate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a locateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := config.Load(a.Script)
	if err != nil {
		return nil, err
	}
	deps := script.Deps{Images: s.cache, Planes: s.planes, Effector: &effector.Recorder{}}
	bot, env, err := script.Build(ctx, cfg, deps, s.log)
	if err != nil {
		return nil, err
	}
	vm, err := bot.Memory.At(a.Map)
	if err != nil {
		return nil, err
	}

	scene, err := s.separated(a.Image)
	if err != nil {
		return nil, err
	}
	p, err := vm.Locate(ctx, a.Label, percept.Root(scene), env)
	if err != nil {
		return nil, err
	}
	x, y := p.Center().XY()
	return &LocateResult{
		Label:   a.Label,
		Region:  rectOf(p.Region()),
		CenterX: x,
		CenterY: y,
	}, nil
}

// === Visualisation ===

type previewArgs struct {
	Path   string `json:"path"`
	Output string `json:"output"`
}

// PreviewResult describes a written preview image.
type PreviewResult struct {
	Output string `json:"output"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	preview, err := s.planes.Preview(img)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(preview, a.Output); err != nil {
		return nil, fmt.Errorf("failed to save preview: %w", err)
	}
	b := preview.Bounds()
	return &PreviewResult{Output: a.Output, Width: b.Dx(), Height: b.Dy()}, nil
}

type markArgs struct {
	Path   string `json:"path"`
	Output string `json:"output"`
	Region Rect   `json:"region"`
	Color  string `json:"color"`
}

func (s *Server) handleMark(args json.RawMessage) (interface{}, error) {
	var a markArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	m, err := mark.NewMarker(a.Color, s.cache)
	if err != nil {
		return nil, err
	}
	if err := m.Mark(a.Path, a.Output, a.Region.roi()); err != nil {
		return nil, err
	}
	return map[string]interface{}{"output": a.Output, "region": a.Region}, nil
}

type snippetArgs struct {
	Path   string `json:"path"`
	Region Rect   `json:"region"`
}

func (s *Server) handleSnippet(args json.RawMessage) (interface{}, error) {
	var a snippetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return mark.Snippet(img, a.Region.roi())
}
