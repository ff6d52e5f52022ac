package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/example/snapmark/internal/annotate"
	"github.com/example/snapmark/internal/canvas"
	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
	"github.com/example/snapmark/internal/postcapture"
)

// renderCmd replays operations given on the command line onto an image
// without opening a window.
type renderCmd struct {
	file         string
	output       string
	stroke       string
	fill         string
	width        float64
	font         string
	blurRadius   float64
	pixelateSize int
	actions      string
	ops          []renderOp
	stdout       io.Writer
	*root
	fs *flag.FlagSet
}

// renderOp is one operation written as tool@x0,y0[,x1,y1...][=text].
type renderOp struct {
	tool   annotate.Tool
	points []geometry.Point
	text   string
}

func (c *renderCmd) FlagSet() *flag.FlagSet { return c.fs }
func (c *renderCmd) Template() string { return "render.txt" }

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs, stdout: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "image to draw on (required)")
	fs.StringVar(&c.output, "output", "annotated.png", "write the result here, - for stdout")
	fs.StringVar(&c.stroke, "colour", "", "stroke and text colour")
	fs.StringVar(&c.fill, "fill", "", "fill colour for rectangles and ellipses")
	fs.Float64Var(&c.width, "width", 0, "stroke width")
	fs.StringVar(&c.font, "font", "", `text font, for example "Go Bold 18"`)
	fs.Float64Var(&c.blurRadius, "blur-radius", 0, "blur radius")
	fs.IntVar(&c.pixelateSize, "pixelate-size", 0, "pixelate block size")
	fs.StringVar(&c.actions, "actions", "", "post-capture actions to run on the result")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" {
		return nil, &UsageError{of: c}
	}
	for _, arg := range fs.Args() {
		op, err := parseRenderOp(arg)
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, op)
	}
	return c, nil
}

func parseRenderOp(arg string) (renderOp, error) {
	name, rest, ok := strings.Cut(arg, "@")
	if !ok {
		return renderOp{}, fmt.Errorf("operation %q: expected tool@x,y,...", arg)
	}
	tool, err := annotate.ParseTool(name)
	if err != nil {
		return renderOp{}, fmt.Errorf("operation %q: %w", arg, err)
	}
	op := renderOp{tool: tool}
	coords, text, hasText := strings.Cut(rest, "=")
	if hasText {
		op.text = text
	}
	fields := strings.Split(coords, ",")
	if len(fields)%2 != 0 {
		return renderOp{}, fmt.Errorf("operation %q: coordinates must come in pairs", arg)
	}
	for i := 0; i < len(fields); i += 2 {
		x, errX := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if errX != nil || errY != nil {
			return renderOp{}, fmt.Errorf("operation %q: invalid point %s,%s", arg, fields[i], fields[i+1])
		}
		op.points = append(op.points, geometry.Pt(x, y))
	}
	switch {
	case tool == annotate.ToolText:
		if len(op.points) != 1 || !hasText {
			return renderOp{}, fmt.Errorf("operation %q: text takes one point and =text", arg)
		}
	case len(op.points) < 2:
		return renderOp{}, fmt.Errorf("operation %q: %s needs at least two points", arg, tool)
	case tool != annotate.ToolPencil && len(op.points) != 2:
		return renderOp{}, fmt.Errorf("operation %q: %s takes exactly two points", arg, tool)
	}
	return op, nil
}

// apply drags op out on stack the way the editor would.
func (op renderOp) apply(stack *annotate.OperationStack) error {
	stack.SetCurrentTool(op.tool)
	if err := stack.StartOperationAt(op.points[0]); err != nil {
		return err
	}
	for _, p := range op.points[1:] {
		if err := stack.UpdateCurrentOperationEnd(p); err != nil {
			return err
		}
	}
	if op.tool == annotate.ToolText {
		if err := stack.UpdateCurrentText(op.text); err != nil {
			return err
		}
	}
	_, err := stack.FinishCurrentOperation()
	return err
}

func (c *renderCmd) style() (annotate.Style, error) {
	st := c.config.Editor.Style()
	if c.stroke != "" {
		col, err := colour.Parse(c.stroke)
		if err != nil {
			return st, err
		}
		st.Primary = col
	}
	if c.fill != "" {
		col, err := colour.Parse(c.fill)
		if err != nil {
			return st, err
		}
		st.Secondary = col
	}
	if c.width > 0 {
		st.LineWidth = c.width
	}
	if c.font != "" {
		st.Font = canvas.ParseFontDescription(c.font)
	}
	if c.blurRadius > 0 {
		st.BlurRadius = c.blurRadius
	}
	if c.pixelateSize > 0 {
		st.PixelateSize = c.pixelateSize
	}
	return st, nil
}

func (c *renderCmd) Run() error {
	ctx := context.Background()
	st, err := c.style()
	if err != nil {
		return err
	}
	var actions []postcapture.Action
	if names := splitList(c.actions); len(names) > 0 {
		if actions, err = c.postCapture(names, "", false); err != nil {
			return err
		}
	}
	base, err := loadImage(c.file)
	if err != nil {
		return err
	}
	out, err := renderOps(base, st, c.ops, c.logger)
	if err != nil {
		return err
	}
	if err := c.write(out); err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}
	return c.finish(ctx, out, actions)
}

func renderOps(base *image.RGBA, st annotate.Style, ops []renderOp, logger *log.Logger) (*image.RGBA, error) {
	b := base.Bounds()
	stack := annotate.New(geometry.RectangleFromImage(b), nil, false, annotate.WithStyle(st), annotate.WithLogger(logger))
	for i, op := range ops {
		if err := op.apply(stack); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i+1, op.tool, err)
		}
	}
	surface := canvas.NewSurface(b.Dx(), b.Dy())
	if err := stack.Execute(surface, canvas.NewContext(surface), base, false); err != nil {
		return nil, err
	}
	rect := stack.CropRegion(nil).Image().Intersect(b)
	if rect.Empty() {
		logger.Printf("crop is outside the image, keeping the whole image")
		rect = b
	}
	return surface.RGBA(rect), nil
}

func (c *renderCmd) write(img *image.RGBA) error {
	if c.output == "-" {
		return png.Encode(c.stdout, img)
	}
	f, err := os.Create(c.output)
	if err != nil {
		return fmt.Errorf("create output %q: %w", c.output, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("write PNG to %q: %w", c.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	c.logger.Printf("saved %s", c.output)
	return nil
}
