package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("New screen should be filled with spaces, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X')
	if s.Get(5, 5) != 'X' {
		t.Errorf("Get(5, 5) = %q, expected 'X'", s.Get(5, 5))
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.SetColored(0, -1, 'A', ColorRed)
	s.Tint(0, 100, ColorRed)

	if s.Get(-1, 0) != ' ' {
		t.Error("Out of bounds Get should return space")
	}
}

func TestScreenColors(t *testing.T) {
	s := NewScreen(4, 2)

	s.SetColored(1, 0, '#', ColorGreen)
	if c := s.GetCell(1, 0); c.Rune != '#' || c.Color != ColorGreen {
		t.Errorf("GetCell(1, 0) = %+v, expected '#' in green", c)
	}

	// Set keeps the existing color
	s.Set(1, 0, '@')
	if c := s.GetCell(1, 0); c.Color != ColorGreen {
		t.Errorf("Set should keep color, got %v", c.Color)
	}

	s.Tint(2, 1, ColorYellow)
	if c := s.GetCell(2, 1); c.Rune != ' ' || c.Color != ColorYellow {
		t.Errorf("Tint should only change color, got %+v", c)
	}

	s.Clear()
	if c := s.GetCell(1, 0); c.Color != ColorDefault {
		t.Errorf("Clear should reset colors, got %v", c.Color)
	}
}

func TestScreenFillRectClips(t *testing.T) {
	s := NewScreen(5, 5)
	s.FillRect(NewRect(3, 3, 10, 10), '#', ColorGreen)

	if s.Get(4, 4) != '#' {
		t.Error("FillRect should fill the visible part")
	}
	if s.Get(2, 2) != ' ' {
		t.Error("FillRect should not touch cells outside the rect")
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(10, 2)
	s.DrawText(2, 1, "Score: 12")

	if got := s.Row(1); got != "  Score: 1" {
		t.Errorf("Row(1) = %q, expected clipped text", got)
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawHLine(0, 1, 3, '=', ColorGray)

	lines := strings.Split(s.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "===" {
		t.Errorf("second line = %q, expected ===", lines[1])
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(3, 3)
	s.Resize(6, 4)

	if s.Width() != 6 || s.Height() != 4 {
		t.Errorf("Resize gave %dx%d, expected 6x4", s.Width(), s.Height())
	}
	if s.Get(5, 3) != ' ' {
		t.Error("Resized screen should be cleared")
	}
}
