package location

import (
	"math/rand"
	"testing"
)

var axis = Bounds{XMin: 0, YMin: -5, XMax: 300, YMax: 305}

func TestBedCenter(t *testing.T) {
	got := BedCenter(axis)
	if got != (Point{X: 150, Y: 150}) {
		t.Errorf("BedCenter() = %v, want (150, 150)", got)
	}
}

func TestRandomPoint_WithinMargin(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	margin := 50.0

	for i := 0; i < 1000; i++ {
		p := RandomPoint(axis, margin, rng)
		if p.X < axis.XMin+margin || p.X > axis.XMax-margin {
			t.Fatalf("x = %v outside [%v, %v]", p.X, axis.XMin+margin, axis.XMax-margin)
		}
		if p.Y < axis.YMin+margin || p.Y > axis.YMax-margin {
			t.Fatalf("y = %v outside [%v, %v]", p.Y, axis.YMin+margin, axis.YMax-margin)
		}
	}
}

func TestRandomPoint_MarginTooLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := RandomPoint(Bounds{XMin: 0, YMin: 0, XMax: 80, YMax: 200}, 50, rng)
	if p.X != 40 {
		t.Errorf("x = %v, want collapsed midpoint 40", p.X)
	}
	if p.Y < 50 || p.Y > 150 {
		t.Errorf("y = %v outside [50, 150]", p.Y)
	}
}

func TestRandomPoint_Deterministic(t *testing.T) {
	a := RandomPoint(axis, 10, rand.New(rand.NewSource(7)))
	b := RandomPoint(axis, 10, rand.New(rand.NewSource(7)))
	if a != b {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestBedCorners(t *testing.T) {
	mesh := Bounds{XMin: 25, YMin: 30, XMax: 275, YMax: 280}
	offset := Offset{X: 0, Y: 25}

	corners := BedCorners(mesh, offset)

	want := [4]Point{
		{X: 25, Y: 255},
		{X: 275, Y: 255},
		{X: 25, Y: 5},
		{X: 275, Y: 5},
	}
	if corners != want {
		t.Errorf("BedCorners() = %v, want %v", corners, want)
	}

	t.Run("stable across calls", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if again := BedCorners(mesh, offset); again != corners {
				t.Fatalf("call %d returned %v, want %v", i, again, corners)
			}
		}
	})

	t.Run("negative offset shifts outward", func(t *testing.T) {
		got := BedCorners(mesh, Offset{X: -10, Y: -20})
		if got[0] != (Point{X: 35, Y: 300}) {
			t.Errorf("corner 0 = %v, want (35, 300)", got[0])
		}
	})
}

func TestPointString(t *testing.T) {
	if got := (Point{X: 24.6, Y: 275.2}).String(); got != "(25, 275)" {
		t.Errorf("String() = %q, want %q", got, "(25, 275)")
	}
}
