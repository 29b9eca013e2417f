package mathx

import "testing"

func TestArcTanCardinalDirections(t *testing.T) {
	cases := []struct {
		x, y, want int
	}{
		{0, 0, 0},
		{0, -10, 0},
		{10, -10, 256},
		{10, 0, 512},
		{10, 10, 768},
		{0, 10, 1024},
		{-10, 10, 1280},
		{-10, 0, 1536},
		{-10, -10, 1792},
	}
	for _, c := range cases {
		if got := ArcTan(c.x, c.y) & AngleMask; got != c.want {
			t.Fatalf("ArcTan(%d,%d)=%d want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestSinCosTable(t *testing.T) {
	if Sin(0) != 0 || Sin(512) != TrigScale || Sin(1024) != 0 || Sin(1536) != -TrigScale {
		t.Fatalf("cardinal sin values: %d %d %d %d", Sin(0), Sin(512), Sin(1024), Sin(1536))
	}
	if Cos(0) != TrigScale || Cos(1024) != -TrigScale {
		t.Fatalf("cardinal cos values: %d %d", Cos(0), Cos(1024))
	}
	// sin(pi/4) * 65536 = 46340.95
	if got := Sin(256); got < 46340 || got > 46341 {
		t.Fatalf("Sin(256)=%d", got)
	}
	// sin(pi/6) = 0.5; 2048/12 is not integral, so use the nearest table slot.
	if got := Sin(171); got < 32700 || got > 32900 {
		t.Fatalf("Sin(171)=%d", got)
	}
	for a := 0; a < AngleCount; a++ {
		if Sin(a) != -Sin(a+AnglePI) {
			t.Fatalf("sin not antisymmetric at %d", a)
		}
		if Sin(a) != Sin(a+AngleCount) {
			t.Fatalf("sin not periodic at %d", a)
		}
	}
}

func TestDiagonalLength(t *testing.T) {
	if got := DiagonalLength(0, 0); got != 0 {
		t.Fatalf("zero: %d", got)
	}
	if got := DiagonalLength(768, 0); got != 768 {
		t.Fatalf("axis: %d", got)
	}
	if got := DiagonalLength(0, -768); got != 768 {
		t.Fatalf("negative axis: %d", got)
	}
	// 3-4-5
	if got := DiagonalLength(300, 400); got < 498 || got > 500 {
		t.Fatalf("3-4-5: %d", got)
	}
	if diagonalRatios[0] != 8192 || diagonalRatios[100] != 8795 || diagonalRatios[256] != 11585 {
		t.Fatalf("ratio table: %d %d %d", diagonalRatios[0], diagonalRatios[100], diagonalRatios[256])
	}
}

func TestQuadrantsAndSmallAround(t *testing.T) {
	cases := []struct{ angle, q int }{
		{0, 0}, {255, 0}, {256, 1}, {512, 1}, {767, 1}, {768, 2}, {1024, 2}, {1536, 3}, {1792, 0}, {2047, 0},
	}
	for _, c := range cases {
		if got := AngleToQuadrant(c.angle); got != c.q {
			t.Fatalf("AngleToQuadrant(%d)=%d want %d", c.angle, got, c.q)
		}
	}
	if got := SmallAroundIndex(5, 5, 5, 2); got != 0 {
		t.Fatalf("north: %d", got)
	}
	if got := SmallAroundIndex(5, 5, 9, 6); got != 1 {
		t.Fatalf("east-ish: %d", got)
	}
	if got := SmallAroundIndex(5, 5, 4, 9); got != 2 {
		t.Fatalf("south-ish: %d", got)
	}
	if got := SmallAroundIndex(5, 5, 1, 5); got != 3 {
		t.Fatalf("west: %d", got)
	}
}

func TestAngleDifferenceAndSign(t *testing.T) {
	if got := AngleDifference(10, 2040); got != 18 {
		t.Fatalf("wraparound diff=%d", got)
	}
	if got := AngleDifference(0, 1024); got != 1024 {
		t.Fatalf("opposite diff=%d", got)
	}
	if AngleSign(0, 512) != 1 || AngleSign(512, 0) != -1 || AngleSign(7, 7) != 0 {
		t.Fatalf("unexpected signs")
	}
}

func TestMoveWithAngle(t *testing.T) {
	if dx, dy := DistanceWithAngleX(256, 0), DistanceWithAngleY(256, 0); dx != 0 || dy != -256 {
		t.Fatalf("north step (%d,%d)", dx, dy)
	}
	if dx, dy := DistanceWithAngleX(256, 512), DistanceWithAngleY(256, 512); dx != 256 || dy != 0 {
		t.Fatalf("east step (%d,%d)", dx, dy)
	}
	if dx, dy := DistanceWithAngleX(256, 1024), DistanceWithAngleY(256, 1024); dx != 0 || dy != 256 {
		t.Fatalf("south step (%d,%d)", dx, dy)
	}
	if dx, dy := DistanceWithAngleX(256, 1536), DistanceWithAngleY(256, 1536); dx != -256 || dy != 0 {
		t.Fatalf("west step (%d,%d)", dx, dy)
	}
}

func TestDistances(t *testing.T) {
	if got := BoxDistance(0, 0, -3, 7); got != 7 {
		t.Fatalf("box=%d", got)
	}
	if got := DistanceSquared(0, 0, 1<<20, 1<<20); got != int64(1)<<41 {
		t.Fatalf("dist2=%d", got)
	}
	if got := ISqrtRound(2); got != 1 {
		t.Fatalf("isqrt(2)=%d", got)
	}
	if got := ISqrtRound(3); got != 2 {
		t.Fatalf("isqrt(3)=%d", got)
	}
}

func TestArcTanStaysInRange(t *testing.T) {
	if got := ArcTan(-1, -1000); got != 0 {
		t.Fatalf("ArcTan(-1,-1000)=%d want 0", got)
	}
	for x := -300; x <= 300; x += 7 {
		for y := -300; y <= 300; y += 5 {
			if got := ArcTan(x, y); got < 0 || got >= AngleCount {
				t.Fatalf("ArcTan(%d,%d)=%d out of range", x, y, got)
			}
		}
	}
}
