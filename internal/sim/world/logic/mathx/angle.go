package mathx

// Angles are fixed point: AngleCount units per full turn. 0 faces -Y, 512 faces
// +X, 1024 faces +Y and 1536 faces -X.
const (
	AngleCount   = 2048
	AngleMask    = AngleCount - 1
	AnglePI      = 1024
	AngleQuarter = 512
	AngleEighth  = 256

	TrigScale = 65536
)

func NormalizeAngle(a int) int {
	return a & AngleMask
}

// ArcTan returns the angle of the vector (x, y), 0 for the zero vector.
func ArcTan(x, y int) int {
	if x == 0 && y == 0 {
		return 0
	}
	if x < 0 {
		ux := -x
		if y < 0 {
			uy := -y
			if ux < uy {
				// Nearly straight up wraps to 0.
				return (2*AnglePI - arcTanFactors[(ux<<8)/uy]) & AngleMask
			}
			return 3*AnglePI/2 + arcTanFactors[(uy<<8)/ux]
		}
		uy := y
		if ux < uy {
			return AnglePI + arcTanFactors[(ux<<8)/uy]
		}
		return 3*AnglePI/2 - arcTanFactors[(uy<<8)/ux]
	}
	ux := x
	if y < 0 {
		uy := -y
		if ux < uy {
			return arcTanFactors[(ux<<8)/uy]
		}
		return AnglePI/2 - arcTanFactors[(uy<<8)/ux]
	}
	uy := y
	if ux < uy {
		return AnglePI - arcTanFactors[(ux<<8)/uy]
	}
	return AnglePI/2 + arcTanFactors[(uy<<8)/ux]
}

// DiagonalLength approximates sqrt(a*a + b*b) for non-negative side lengths.
func DiagonalLength(a, b int) int {
	a = AbsInt(a)
	b = AbsInt(b)
	var idx, long int
	if a > b {
		idx = (b << 8) / a
		long = a
	} else {
		if b == 0 {
			return 0
		}
		idx = (a << 8) / b
		long = b
	}
	return int((int64(long) * int64(diagonalRatios[idx])) >> 13)
}

func Sin(a int) int {
	return sinTable[a&AngleMask]
}

func Cos(a int) int {
	return sinTable[(a+AngleQuarter)&AngleMask]
}

// AngleToQuadrant maps an angle to the nearest of the four axis directions,
// indexing SmallAround.
func AngleToQuadrant(a int) int {
	return ((a + AngleEighth) >> 9) & 3
}

func QuadrantToAngle(q int) int {
	return AngleQuarter * (q & 3)
}

// SmallAroundIndex is the quadrant pointing from (sx, sy) towards (dx, dy).
func SmallAroundIndex(sx, sy, dx, dy int) int {
	return AngleToQuadrant(ArcTan(dx-sx, dy-sy) & AngleMask)
}

// AngleDifference is the unsigned wraparound distance between two angles, in [0, 1024].
func AngleDifference(a, b int) int {
	d := (a - b) & AngleMask
	if d > AnglePI {
		d = AngleCount - d
	}
	return d
}

// AngleSign is +1 when turning from a to b is clockwise (increasing angle), -1
// otherwise and 0 when they are equal.
func AngleSign(a, b int) int {
	d := (b - a) & AngleMask
	switch {
	case d == 0:
		return 0
	case d <= AnglePI:
		return 1
	default:
		return -1
	}
}

// DistanceWithAngleX is the X component of a move of dist along angle.
func DistanceWithAngleX(dist, angle int) int {
	return ((Sin(angle) >> 8) * dist) >> 8
}

// DistanceWithAngleY is the Y component of a move of dist along angle.
func DistanceWithAngleY(dist, angle int) int {
	return (-(Cos(angle) >> 8) * dist) >> 8
}

func MoveWithAngleX(x, dist, angle int) int {
	return x + DistanceWithAngleX(dist, angle)
}

func MoveWithAngleY(y, dist, angle int) int {
	return y + DistanceWithAngleY(dist, angle)
}

// BoxDistance is the Chebyshev distance between two points.
func BoxDistance(ax, ay, bx, by int) int {
	return MaxInt(AbsInt(ax-bx), AbsInt(ay-by))
}

// DistanceSquared is evaluated in 64 bits so large maps cannot overflow.
func DistanceSquared(ax, ay, bx, by int) int64 {
	dx := int64(ax - bx)
	dy := int64(ay - by)
	return dx*dx + dy*dy
}

func Distance(ax, ay, bx, by int) int {
	return DiagonalLength(ax-bx, ay-by)
}

// AngleTo is the facing from (ax, ay) towards (bx, by).
func AngleTo(ax, ay, bx, by int) int {
	return ArcTan(bx-ax, by-ay) & AngleMask
}
