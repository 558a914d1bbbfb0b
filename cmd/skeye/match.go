package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	cli "github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/mark"
	"github.com/ironsheep/skeye/internal/match"
	"github.com/ironsheep/skeye/internal/plane"
)

var (
	matchRegion string
	minConf     float64
	surfaceDir  string

	searchCmd = &cli.Command{
		Use:   "search IMAGE TEMPLATE",
		Short: "Find the best match of TEMPLATE inside IMAGE",
		Args:  cli.ExactArgs(2),
		RunE:  runSearch,
	}

	correlateCmd = &cli.Command{
		Use:   "correlate IMAGE TEMPLATE",
		Short: "Write the correlation surface of TEMPLATE over IMAGE as signal.png and winner.png",
		Args:  cli.ExactArgs(2),
		RunE:  runCorrelate,
	}

	previewCmd = &cli.Command{
		Use:   "preview IMAGE OUTPUT",
		Short: "Render the colour-plane separation of IMAGE to OUTPUT",
		Args:  cli.ExactArgs(2),
		RunE:  runPreview,
	}
)

func init() {
	for _, c := range []*cli.Command{searchCmd, correlateCmd} {
		c.Flags().StringVar(&matchRegion, "region", "", "template region as x1,y1,x2,y2 (x2 and y2 exclusive)")
	}
	searchCmd.Flags().Float64Var(&minConf, "min-confidence", 0, "fail unless the match reaches this confidence")
	correlateCmd.Flags().StringVarP(&surfaceDir, "out", "o", ".", "directory for signal.png and winner.png")

	rootCmd.AddCommand(searchCmd, correlateCmd, previewCmd)
}

// planes loads the scene and template of a matching command as separated
// colour planes.
func planes(imagePath, templatePath string) (scene, template *mat.Dense, err error) {
	images := capture.NewImageCache()
	cache := plane.NewCache(0)

	separate := func(path string) (*mat.Dense, error) {
		img, err := images.Load(path)
		if err != nil {
			return nil, err
		}
		return cache.Separate(img)
	}
	if scene, err = separate(imagePath); err != nil {
		return nil, nil, err
	}
	if template, err = separate(templatePath); err != nil {
		return nil, nil, err
	}

	if matchRegion == "" {
		return scene, template, nil
	}
	roi, err := parseRegion(matchRegion)
	if err != nil {
		return nil, nil, err
	}
	template, err = geom.Crop(template, roi)
	return scene, template, err
}

// parseRegion reads "x1,y1,x2,y2".
func parseRegion(s string) (geom.ROI, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.ROI{}, fmt.Errorf("--region needs 4 values, got %d", len(parts))
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geom.ROI{}, fmt.Errorf("--region: %w", err)
		}
		v[i] = n
	}
	return geom.FromRect(image.Rect(v[0], v[1], v[2], v[3])), nil
}

func runSearch(cmd *cli.Command, args []string) error {
	scene, template, err := planes(args[0], args[1])
	if err != nil {
		return err
	}
	m, err := match.Search(scene, template)
	if err != nil {
		return err
	}

	roi := m.Region()
	x, y := roi.Center().XY()
	logger.Debug().Stringer("region", roi).Float64("confidence", m.Confidence).Msg("search done")
	if m.Truncated {
		logger.Warn().Stringer("region", roi).Msg("best match runs past the image edge")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s center=(%d,%d) confidence=%.4f\n", roi, x, y, m.Confidence)

	if m.Confidence < minConf {
		return fmt.Errorf("confidence %.4f below %.4f", m.Confidence, minConf)
	}
	return nil
}

func runCorrelate(cmd *cli.Command, args []string) error {
	scene, template, err := planes(args[0], args[1])
	if err != nil {
		return err
	}
	surface, err := match.Correlate(scene, template)
	if err != nil {
		return err
	}

	signal := filepath.Join(surfaceDir, "signal.png")
	winner := filepath.Join(surfaceDir, "winner.png")
	if err := mark.SaveSurface(signal, surface); err != nil {
		return err
	}
	if err := mark.SaveWinner(winner, surface); err != nil {
		return err
	}
	logger.Info().Str("signal", signal).Str("winner", winner).Msg("correlation saved")
	return nil
}

func runPreview(cmd *cli.Command, args []string) error {
	img, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	preview, err := plane.NewCache(1).Preview(img)
	if err != nil {
		return err
	}
	if err := imaging.Save(preview, args[1]); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	logger.Info().Str("output", args[1]).Msg("preview saved")
	return nil
}
