package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/orrery/internal/frame"
)

func TestTrajectoriesToSVG(t *testing.T) {
	frames := []frame.Frame{
		{{0, 0, 0, 0.05}, {1, 0, 0, 0.01}, {0, 0.4, 0, 0.01}},
		{{0, 0, 0, 0.05}, {0.9, 0.3, 0, 0.01}, {-0.1, 0.4, 0, 0.01}},
		{{0, 0, 0, 0.05}, {0.7, 0.6, 0, 0.01}, {-0.2, 0.3, 0, 0.01}},
	}

	var buf bytes.Buffer
	if err := TrajectoriesToSVG(&buf, frames, 400, 300); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("not a complete svg document:\n%s", out)
	}
	if got := strings.Count(out, "<path"); got != 3 {
		t.Errorf("expected 3 paths, got %d", got)
	}
	if got := strings.Count(out, "<circle"); got != 3 {
		t.Errorf("expected 3 circles, got %d", got)
	}
	if got := strings.Count(out, " L"); got != 6 {
		t.Errorf("expected 6 line segments, got %d", got)
	}
}

func TestTrajectoriesToSVG_SingleFrame(t *testing.T) {
	var buf bytes.Buffer
	err := TrajectoriesToSVG(&buf, []frame.Frame{{{0, 0, 0, 1}, {1, 1, 0, 1}}}, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<path") {
		t.Error("single frame should not draw paths")
	}
	if got := strings.Count(buf.String(), "<circle"); got != 2 {
		t.Errorf("expected 2 circles, got %d", got)
	}
}

func TestTrajectoriesToSVG_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := TrajectoriesToSVG(&buf, nil, 100, 100); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}
