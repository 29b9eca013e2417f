package mathx

// arcTanFactors[i] is atan(i/256) expressed in angle units (2048 per turn).
var arcTanFactors = [257]int{
	0, 1, 2, 3, 5, 6, 7, 8, 10, 11, 12, 13, 15, 16, 17, 19,
	20, 21, 22, 24, 25, 26, 27, 29, 30, 31, 32, 34, 35, 36, 38, 39,
	40, 41, 43, 44, 45, 46, 48, 49, 50, 51, 53, 54, 55, 56, 57, 59,
	60, 61, 62, 64, 65, 66, 67, 68, 70, 71, 72, 73, 75, 76, 77, 78,
	79, 81, 82, 83, 84, 85, 87, 88, 89, 90, 91, 92, 94, 95, 96, 97,
	98, 99, 101, 102, 103, 104, 105, 106, 107, 109, 110, 111, 112, 113, 114, 115,
	116, 118, 119, 120, 121, 122, 123, 124, 125, 126, 127, 129, 130, 131, 132, 133,
	134, 135, 136, 137, 138, 139, 140, 141, 142, 143, 144, 145, 147, 148, 149, 150,
	151, 152, 153, 154, 155, 156, 157, 158, 159, 160, 161, 162, 163, 164, 165, 166,
	167, 167, 168, 169, 170, 171, 172, 173, 174, 175, 176, 177, 178, 179, 180, 181,
	182, 182, 183, 184, 185, 186, 187, 188, 189, 190, 191, 191, 192, 193, 194, 195,
	196, 197, 198, 198, 199, 200, 201, 202, 203, 203, 204, 205, 206, 207, 208, 208,
	209, 210, 211, 212, 212, 213, 214, 215, 216, 216, 217, 218, 219, 220, 220, 221,
	222, 223, 223, 224, 225, 226, 226, 227, 228, 229, 229, 230, 231, 232, 232, 233,
	234, 235, 235, 236, 237, 237, 238, 239, 239, 240, 241, 242, 242, 243, 244, 244,
	245, 246, 246, 247, 248, 248, 249, 250, 250, 251, 252, 252, 253, 254, 254, 255,
	256,
}

// diagonalRatios[i] = round(8192 * sqrt(1 + (i/256)^2)).
var diagonalRatios [257]int

// sinTable holds sin over a full turn scaled to 65536.
var sinTable [AngleCount]int

// SmallAround lists unit steps in quadrant order: -Y, +X, +Y, -X.
var SmallAround = [4]struct{ X, Y int }{
	{0, -1},
	{1, 0},
	{0, 1},
	{-1, 0},
}

const (
	// pi in Q28.
	piQ28 = 843314857
	q28   = 28
)

func init() {
	for i := range diagonalRatios {
		a := int64(8192)
		b := int64(32 * i)
		diagonalRatios[i] = int(ISqrtRound(a*a + b*b))
	}

	for k := 0; k <= AngleQuarter; k++ {
		sinTable[k] = sinQuarter(k)
	}
	sinTable[0] = 0
	sinTable[AngleQuarter] = TrigScale
	for k := 1; k < AngleQuarter; k++ {
		sinTable[AnglePI-k] = sinTable[k]
	}
	for k := 0; k < AnglePI; k++ {
		sinTable[AnglePI+k] = -sinTable[k]
	}
}

// sinQuarter evaluates sin(k*pi/1024) for k in [0,512] by Taylor series in Q28
// and rounds it to the 65536 scale. Only integer operations are used so every
// platform builds the same table.
func sinQuarter(k int) int {
	x := int64(k) * piQ28 / AnglePI
	x2 := (x * x) >> q28
	term := x
	sum := x
	for n := int64(1); n < 16; n++ {
		term = -(term * x2 >> q28) / ((2 * n) * (2*n + 1))
		if term == 0 {
			break
		}
		sum += term
	}
	// Q28 -> 1<<16 with rounding.
	return int((sum + (1 << 11)) >> 12)
}
