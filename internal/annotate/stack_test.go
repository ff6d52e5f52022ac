package annotate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/example/snapmark/internal/colour"
	"github.com/example/snapmark/internal/geometry"
)

var testScreen = geometry.Rectangle{W: 1920, H: 1080}

func line(n float64) Operation {
	return DrawLine{Start: geometry.Pt(n, n), End: geometry.Pt(n+10, n), Colour: colour.Red, Width: 2}
}

func TestUndoRedoRestoresSequence(t *testing.T) {
	const n = 5
	var want []Operation
	for i := 0; i < n; i++ {
		want = append(want, line(float64(i)))
	}
	for m := 0; m <= n; m++ {
		s := New(testScreen, nil, false)
		for _, op := range want {
			if err := s.Push(op); err != nil {
				t.Fatal(err)
			}
		}
		for i := 0; i < m; i++ {
			if !s.Undo() {
				t.Fatalf("m=%d: undo %d did nothing", m, i)
			}
		}
		if got := len(s.Committed()); got != n-m {
			t.Fatalf("m=%d: %d committed after undo", m, got)
		}
		for i := 0; i < m; i++ {
			if !s.Redo() {
				t.Fatalf("m=%d: redo %d did nothing", m, i)
			}
		}
		if got := s.Committed(); !reflect.DeepEqual(got, want) {
			t.Fatalf("m=%d: got %v want %v", m, got, want)
		}
	}
}

func TestUndoRedoEmptyAreNoops(t *testing.T) {
	s := New(testScreen, nil, false)
	if s.Undo() {
		t.Fatal("undo on empty stack reported a change")
	}
	if s.Redo() {
		t.Fatal("redo on empty buffer reported a change")
	}
	if len(s.Committed()) != 0 || s.RedoLen() != 0 {
		t.Fatal("state changed")
	}
}

func TestCommitDiscardsRedo(t *testing.T) {
	s := New(testScreen, nil, false)
	a, b, c := line(1), line(2), line(3)
	_ = s.Push(a)
	_ = s.Push(b)
	s.Undo()
	s.Undo()
	if s.RedoLen() != 2 {
		t.Fatalf("redo buffer %d", s.RedoLen())
	}
	_ = s.Push(c)
	if got := s.Committed(); !reflect.DeepEqual(got, []Operation{c}) {
		t.Fatalf("committed %v", got)
	}
	if s.RedoLen() != 0 {
		t.Fatalf("redo buffer not cleared: %d", s.RedoLen())
	}
	if s.Redo() {
		t.Fatal("redo after commit should be a no-op")
	}
}

func TestRectangleDragScenario(t *testing.T) {
	s := New(testScreen, nil, false)
	s.SetCurrentTool(ToolRectangle)
	if err := s.StartOperationAt(geometry.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateCurrentOperationEnd(geometry.Pt(50, 80)); err != nil {
		t.Fatal(err)
	}
	commit, err := s.FinishCurrentOperation()
	if err != nil {
		t.Fatal(err)
	}
	if commit.Saving || commit.Tool != ToolRectangle {
		t.Fatalf("unexpected commit %+v", commit)
	}
	st := DefaultStyle()
	want := []Operation{DrawRectangle{
		Rect:   geometry.Rectangle{X: 10, Y: 10, W: 40, H: 70},
		Border: st.Primary,
		Fill:   st.Secondary,
		Width:  st.LineWidth,
	}}
	if got := s.Committed(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
	s.Undo()
	if len(s.Committed()) != 0 {
		t.Fatal("undo left operations behind")
	}
	s.Redo()
	if got := s.Committed(); !reflect.DeepEqual(got, want) {
		t.Fatalf("after redo got %+v", got)
	}
}

func TestLifecycleErrors(t *testing.T) {
	s := New(testScreen, nil, false)
	if err := s.UpdateCurrentOperationEnd(geometry.Pt(1, 1)); !errors.Is(err, ErrNoOperation) {
		t.Fatalf("update while idle: %v", err)
	}
	if _, err := s.FinishCurrentOperation(); !errors.Is(err, ErrNoOperation) {
		t.Fatalf("finish while idle: %v", err)
	}
	if err := s.StartOperationAt(geometry.Pt(1, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.StartOperationAt(geometry.Pt(2, 2)); !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("second start: %v", err)
	}
	if _, err := s.FinishCurrentOperation(); err != nil {
		t.Fatal(err)
	}
	s.Seal()
	if err := s.StartOperationAt(geometry.Pt(3, 3)); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("start after seal: %v", err)
	}
	ops := s.Committed()
	if _, ok := ops[len(ops)-1].(Finish); !ok {
		t.Fatalf("last operation %T, want Finish", ops[len(ops)-1])
	}
}

func TestPencilCollectsPoints(t *testing.T) {
	s := New(testScreen, nil, false)
	_ = s.StartOperationAt(geometry.Pt(0, 0))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(1, 2))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(3, 4))
	commit, _ := s.FinishCurrentOperation()
	p, ok := commit.Operation.(DrawPencil)
	if !ok {
		t.Fatalf("got %T", commit.Operation)
	}
	want := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 3, Y: 4}}
	if !reflect.DeepEqual(p.Points, want) {
		t.Fatalf("points %v", p.Points)
	}
}

func TestCropFirstStartsSaving(t *testing.T) {
	s := New(testScreen, nil, true)
	if s.Tool() != ToolCropAndSave {
		t.Fatalf("tool %v", s.Tool())
	}
	_ = s.StartOperationAt(geometry.Pt(5, 5))
	s.SetInCropDrag(true)
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(25, 15))
	commit, err := s.FinishCurrentOperation()
	if err != nil {
		t.Fatal(err)
	}
	if !commit.Saving {
		t.Fatal("crop-and-save commit should be saving")
	}
	if s.InCropDrag() {
		t.Fatal("crop drag not reset")
	}
	want := geometry.Rectangle{X: 5, Y: 5, W: 20, H: 10}
	if got := s.CropRegion(nil); got != want {
		t.Fatalf("crop %v want %v", got, want)
	}
}

var testWindows = []Window{
	{
		Title:   "top",
		Outer:   geometry.Rectangle{X: 100, Y: 100, W: 200, H: 200},
		Content: geometry.Rectangle{X: 105, Y: 125, W: 190, H: 170},
	},
	{
		Title: "below",
		Outer: geometry.Rectangle{X: 50, Y: 50, W: 500, H: 500},
	},
}

func TestCropRegionPriority(t *testing.T) {
	s := New(testScreen, testWindows, false)
	if got := s.CropRegion(nil); got != testScreen {
		t.Fatalf("no point: %v", got)
	}
	p := geometry.Pt(150, 150)
	if got := s.CropRegion(&p); got != testWindows[0].Outer {
		t.Fatalf("window: %v", got)
	}
	s.SetSelectionMode(WindowsWithoutDecorations)
	if got := s.CropRegion(&p); got != testWindows[0].Content {
		t.Fatalf("content: %v", got)
	}
	outside := geometry.Pt(1000, 1000)
	if got := s.CropRegion(&outside); got != testScreen {
		t.Fatalf("outside: %v", got)
	}
	_ = s.Push(Crop{Rect: geometry.Rectangle{X: 10, Y: 10}})
	if got := s.CropRegion(&p); got != testWindows[0].Content {
		t.Fatalf("degenerate crop should be ignored: %v", got)
	}
	_ = s.Push(Crop{Rect: geometry.Rectangle{X: 40, Y: 30, W: -30, H: -20}})
	want := geometry.Rectangle{X: 10, Y: 10, W: 30, H: 20}
	if got := s.CropRegion(&p); got != want {
		t.Fatalf("crop: %v want %v", got, want)
	}
}

func TestWindowSelectSnapsUntilDragged(t *testing.T) {
	s := New(testScreen, testWindows, false)
	s.SetCurrentTool(ToolWindowSelect)
	_ = s.StartOperationAt(geometry.Pt(150, 150))
	ws, ok := s.Current().(WindowSelect)
	if !ok || ws.Rect != testWindows[0].Outer {
		t.Fatalf("start did not snap: %+v", s.Current())
	}
	s.SetInCropDrag(true)
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(400, 300))
	s.SetCurrentWindow(geometry.Pt(400, 300))
	want := geometry.Rectangle{X: 150, Y: 150, W: 250, H: 150}
	if ws := s.Current().(WindowSelect); ws.Rect != want {
		t.Fatalf("drag rect %v want %v", ws.Rect, want)
	}
}

func TestSetCurrentWindowUsesGivenPoint(t *testing.T) {
	windows := []Window{
		{Title: "a", Outer: geometry.Rectangle{W: 10, H: 10}},
		{Title: "b", Outer: geometry.Rectangle{X: 50, Y: 50, W: 10, H: 10}},
	}
	s := New(testScreen, windows, true)
	_ = s.StartOperationAt(geometry.Pt(5, 5))
	if c := s.Current().(Crop); c.Rect != windows[0].Outer {
		t.Fatalf("start snapped to %v", c.Rect)
	}
	s.SetCurrentWindow(geometry.Pt(55, 55))
	if c := s.Current().(Crop); c.Rect != windows[1].Outer {
		t.Fatalf("crop %v want %v", c.Rect, windows[1].Outer)
	}
}

func TestCommitReportsStartingTool(t *testing.T) {
	s := New(testScreen, nil, false)
	s.SetCurrentTool(ToolText)
	_ = s.StartOperationAt(geometry.Pt(5, 5))
	s.SetCurrentTool(ToolCropAndSave)
	commit, err := s.FinishCurrentOperation()
	if err != nil {
		t.Fatal(err)
	}
	if commit.Tool != ToolText || commit.Saving {
		t.Fatalf("commit %+v", commit)
	}
}

func TestIgnoreWindowsKeepsDragRectangle(t *testing.T) {
	s := New(testScreen, testWindows, false)
	s.SetCurrentTool(ToolCrop)
	s.SetIgnoreWindows(true)
	_ = s.StartOperationAt(geometry.Pt(150, 150))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(160, 170))
	s.SetCurrentWindow(geometry.Pt(160, 170))
	want := geometry.Rectangle{X: 150, Y: 150, W: 10, H: 20}
	if c := s.Current().(Crop); c.Rect != want {
		t.Fatalf("crop %v want %v", c.Rect, want)
	}
}

func TestTextOperation(t *testing.T) {
	s := New(testScreen, nil, false)
	s.SetCurrentTool(ToolText)
	_ = s.StartOperationAt(geometry.Pt(7, 9))
	_ = s.UpdateCurrentOperationEnd(geometry.Pt(70, 90))
	if err := s.UpdateCurrentText("<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	commit, _ := s.FinishCurrentOperation()
	txt := commit.Operation.(Text)
	if txt.Anchor != geometry.Pt(7, 9) || txt.Text != "<b>hi</b>" {
		t.Fatalf("text op %+v", txt)
	}
}

func TestParseTool(t *testing.T) {
	for _, tool := range Tools() {
		got, err := ParseTool(tool.String())
		if err != nil || got != tool {
			t.Fatalf("ParseTool(%q) = %v, %v", tool.String(), got, err)
		}
	}
	if _, err := ParseTool("lasso"); err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !ToolWindowSelect.IsSavingTool() || ToolCrop.IsSavingTool() || !ToolCrop.IsCroppingTool() || ToolBlur.IsCroppingTool() {
		t.Fatal("tool classification wrong")
	}
}
