// Package annotate holds the operation stack: the committed drawing
// operations of a capture session, undo/redo over them, the operation being
// dragged out, and replay of all of it onto a surface.
package annotate

import (
	"fmt"
	"strings"
)

// Tool selects the kind of operation a new drag produces.
type Tool int

const (
	ToolCropAndSave Tool = iota
	ToolWindowSelect
	ToolCrop
	ToolPencil
	ToolLine
	ToolArrow
	ToolRectangle
	ToolHighlight
	ToolEllipse
	ToolPixelate
	ToolBlur
	ToolText
)

var toolNames = [...]string{
	ToolCropAndSave:  "crop-and-save",
	ToolWindowSelect: "window-select",
	ToolCrop:         "crop",
	ToolPencil:       "pencil",
	ToolLine:         "line",
	ToolArrow:        "arrow",
	ToolRectangle:    "rectangle",
	ToolHighlight:    "highlight",
	ToolEllipse:      "ellipse",
	ToolPixelate:     "pixelate",
	ToolBlur:         "blur",
	ToolText:         "text",
}

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	tools := make([]Tool, len(toolNames))
	for i := range toolNames {
		tools[i] = Tool(i)
	}
	return tools
}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool looks a tool up by name, ignoring case.
func ParseTool(name string) (Tool, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range toolNames {
		if s == n {
			return Tool(i), nil
		}
	}
	switch n {
	case "rect":
		return ToolRectangle, nil
	case "circle":
		return ToolEllipse, nil
	case "draw", "freehand":
		return ToolPencil, nil
	}
	return 0, fmt.Errorf("unknown tool %q", name)
}

// IsCroppingTool reports whether the tool selects the output region.
func (t Tool) IsCroppingTool() bool {
	switch t {
	case ToolCropAndSave, ToolWindowSelect, ToolCrop:
		return true
	}
	return false
}

// IsSavingTool reports whether committing the tool's operation ends the
// session and hands the image to the post-capture actions.
func (t Tool) IsSavingTool() bool {
	switch t {
	case ToolCropAndSave, ToolWindowSelect:
		return true
	}
	return false
}
