package wallhug

import (
	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

// Step advances the local navigation of a towards target by one tick. It
// only updates a.Nav; the caller turns the agent to the returned angle and
// moves it towards Next.
func (n *Navigator) Step(a *Agent, target coord.Pos) StepResult {
	st := &a.Nav
	if st.Kind == Unset || st.Final != target {
		st.Reset(target)
	}

	if d := dist2(a.Pos, target); d < st.BestDist2 {
		st.BestDist2 = d
		st.HugIters = 0
	}
	if st.HugIters >= n.maxHug() {
		n.logf("wallhug: stalled at %d,%d after %d hug steps", a.Pos.X, a.Pos.Y, st.HugIters)
		st.Reset(target)
		st.Kind = Unset
		return StepResult{Next: a.Pos, Angle: a.Angle, Action: ActionStall}
	}

	switch st.Kind {
	case WallHug:
		return n.stepWallHug(a, target)
	case Manoeuvre:
		return n.stepManoeuvre(a, target)
	default:
		return n.stepOnLine(a, target)
	}
}

func (n *Navigator) move(a *Agent) StepResult {
	a.Nav.Next = n.Probe.Map.ClampPos(a.Nav.Next)
	return StepResult{Next: a.Nav.Next, Angle: a.Nav.Angle, Action: ActionMove}
}

func (n *Navigator) stay(a *Agent) StepResult {
	a.Nav.Next = a.Pos
	return StepResult{Next: a.Pos, Angle: a.Nav.Angle, Action: ActionMove}
}

func (n *Navigator) startApproach(a *Agent, tile coord.Tile, phase Phase) StepResult {
	st := &a.Nav
	st.Block = tile
	pos, ok := n.ApproachPosition(a.Pos, tile, a.Mover.Radius+approachSpacing)
	if !ok {
		pos = a.Pos
	}
	st.Next = pos
	st.Angle = angleTo(a.Pos, pos)
	st.RotRun, st.RotDir = 0, 0
	st.DistToNext = box(a.Pos, st.Next)
	st.Kind = Manoeuvre
	st.Phase = phase
	return n.move(a)
}

func (n *Navigator) stepOnLine(a *Agent, target coord.Pos) StepResult {
	st := &a.Nav
	if box(a.Pos, st.Next) >= st.DistToNext {
		if st.Push > 0 {
			// made no headway towards the wall
			st.HugIters++
		}
		st.Push = 0
	}
	if st.Push == 0 {
		st.Angle = angleTo(a.Pos, target)
		st.Next = along(a.Pos, a.Speed, st.Angle)
		if box(a.Pos, target) < box(a.Pos, st.Next) {
			st.Next = target
		}
		st.DistToNext = box(a.Pos, st.Next)

		v := n.Probe.CanAdvance(a.Mover, a.Pos, st.Next)
		switch v.Result {
		case collide.HardBlock:
			if n.diggable(a, v.Tile) {
				return n.startApproach(a, v.Tile, PhaseApproachDig)
			}
			if tile, ok := n.Probe.FirstBlockingTile(a.Mover, a.Pos, st.Next); ok {
				st.BlockOwners = collide.OwnerBit(n.Probe.Map.At(tile).Owner)
			}
			side, angle, ok := n.ChooseSide(a, st.Next)
			if !ok {
				st.backOnLine(target)
				st.HugIters++
				return n.stay(a)
			}
			st.Side = side
			st.Angle = angle
			flags := n.Probe.BlockedFlags(a.Mover, a.Pos, st.Next)
			st.Next = collide.SnapAgainstWall(a.Pos, st.Next, a.Mover.Radius, flags, angle, collide.NegativeEdgeHug)
			st.DistToNext = box(a.Pos, st.Next)
			st.Push = 1
		case collide.SoftBlock:
			// Clipping a corner: slide along whichever axis is free.
			st.Next = n.slideAxis(a, st.Next)
			st.DistToNext = box(a.Pos, st.Next)
			if st.Next == a.Pos {
				st.HugIters++
			}
		}
	}
	if st.Push > 0 {
		st.Push++
		if st.Push > pushWarnTicks {
			n.logf("WARN wallhug: pushing against wall for %d ticks at %d,%d", st.Push, a.Pos.X, a.Pos.Y)
		}
		if box(a.Pos, st.Next) <= ArrivalSlack {
			st.Push = 0
			return n.pushTowardsTarget(a, target)
		}
	}
	return n.move(a)
}

// slideAxis keeps the larger clear axis component of a move that only clips
// a corner.
func (n *Navigator) slideAxis(a *Agent, next coord.Pos) coord.Pos {
	xOnly := coord.Pos{X: next.X, Y: a.Pos.Y, Z: a.Pos.Z}
	yOnly := coord.Pos{X: a.Pos.X, Y: next.Y, Z: a.Pos.Z}
	first, second := xOnly, yOnly
	if mathx.AbsInt(next.Y-a.Pos.Y) > mathx.AbsInt(next.X-a.Pos.X) {
		first, second = yOnly, xOnly
	}
	if !n.Probe.CanAdvance(a.Mover, a.Pos, first).Blocked() {
		return first
	}
	if !n.Probe.CanAdvance(a.Mover, a.Pos, second).Blocked() {
		return second
	}
	return a.Pos
}

// pushTowardsTarget starts hugging along the chosen angle.
func (n *Navigator) pushTowardsTarget(a *Agent, target coord.Pos) StepResult {
	st := &a.Nav
	st.Kind = WallHug
	st.Next = along(a.Pos, a.Speed, st.Angle)
	if cand := n.CheckForward(a.Mover, st.Next, st.Angle); box(cand, a.Pos) > ArrivalSlack {
		st.Next = cand
	}
	st.DistToNext = box(a.Pos, st.Next)
	st.DistToFinal = box(a.Pos, target)
	v := n.Probe.CanAdvance(a.Mover, a.Pos, st.Next)
	if v.Result == collide.HardBlock {
		if n.diggable(a, v.Tile) {
			return n.startApproach(a, v.Tile, PhaseApproachDig)
		}
		st.Next = a.Pos
		st.DistToNext = 0
	}
	return n.move(a)
}

func (n *Navigator) stepWallHug(a *Agent, target coord.Pos) StepResult {
	st := &a.Nav
	st.HugIters++

	if d := box(a.Pos, st.Next); d > ArrivalSlack {
		if d > st.DistToNext || n.Probe.CanAdvance(a.Mover, a.Pos, st.Next).Blocked() {
			st.backOnLine(target)
			return n.stepOnLine(a, target)
		}
		return n.move(a)
	}
	if box(a.Pos, target) < st.DistToFinal && n.CanContinueDirectLine(a.Mover, a.Pos, target, 1) {
		st.backOnLine(target)
		return n.stepOnLine(a, target)
	}
	if a.Angle != st.Angle {
		// still turning
		return n.move(a)
	}

	angle := n.HugAngle(a, st.Side, a.Speed)
	if angle < 0 {
		n.logf("wallhug: no hug direction at %d,%d", a.Pos.X, a.Pos.Y)
		return n.stay(a)
	}
	if angle != st.Angle {
		tmp := along(a.Pos, a.Speed, st.Angle)
		if n.Probe.CanAdvance(a.Mover, a.Pos, tmp).Result == collide.HardBlock {
			flags := n.Probe.BlockedFlags(a.Mover, a.Pos, tmp)
			tmp = collide.SnapAgainstWall(a.Pos, tmp, a.Mover.Radius, flags, st.Angle, collide.NegativeEdgeHug)
			if box(tmp, a.Pos) > ArrivalSlack {
				st.Next = tmp
				st.DistToNext = box(a.Pos, st.Next)
				return n.move(a)
			}
		}
	}

	switch {
	case (angle+mathx.AngleQuarter)&mathx.AngleMask == st.Angle:
		n.countRotation(st, 1)
	case (angle-mathx.AngleQuarter)&mathx.AngleMask == st.Angle:
		n.countRotation(st, 2)
	default:
		st.RotRun, st.RotDir = 0, 0
	}
	if st.RotRun >= 4 {
		// Went all the way round a pillar.
		st.backOnLine(target)
		return n.stepOnLine(a, target)
	}

	st.Angle = angle
	st.Next = along(a.Pos, a.Speed, angle)
	if cand := n.CheckForward(a.Mover, st.Next, angle); box(cand, a.Pos) > ArrivalSlack {
		st.Next = cand
	}
	st.DistToNext = box(a.Pos, st.Next)
	v := n.Probe.CanAdvance(a.Mover, a.Pos, st.Next)
	if v.Result == collide.HardBlock {
		if n.diggable(a, v.Tile) {
			return n.startApproach(a, v.Tile, PhaseApproachSlide)
		}
		n.logf("WARN wallhug: hug step into wall at %d,%d angle %d", a.Pos.X, a.Pos.Y, angle)
		st.backOnLine(target)
		return n.stay(a)
	}
	return n.move(a)
}

func (n *Navigator) countRotation(st *State, dir int) {
	if st.RotDir == dir {
		st.RotRun++
		return
	}
	st.RotDir = dir
	st.RotRun = 1
}

func (n *Navigator) faceBlock(a *Agent) (int, bool) {
	c := a.Nav.Block.Center()
	angle := angleTo(a.Pos, c)
	return angle, mathx.AngleDifference(a.Angle, angle) == 0
}

func (n *Navigator) stepManoeuvre(a *Agent, target coord.Pos) StepResult {
	st := &a.Nav
	switch st.Phase {
	case PhaseApproachDig, PhaseApproachSlide:
		if d := box(a.Pos, st.Next); d > ArrivalSlack {
			if st.Phase == PhaseApproachSlide &&
				(d > st.DistToNext || n.Probe.CanAdvance(a.Mover, a.Pos, st.Next).Blocked()) {
				st.backOnLine(target)
				return n.stepOnLine(a, target)
			}
			st.Angle = angleTo(a.Pos, st.Next)
			return n.move(a)
		}
		angle, facing := n.faceBlock(a)
		st.Angle = angle
		if !facing {
			return n.stay(a)
		}
		if st.Phase == PhaseApproachDig {
			st.Phase = PhaseDigWait
		} else {
			st.Phase = PhaseSlideDigWait
		}
		return StepResult{Next: a.Pos, Angle: angle, Action: ActionDig, DigTile: st.Block}

	case PhaseDigWait:
		if n.stillBlocking(st.Block) {
			return StepResult{Next: a.Pos, Angle: st.Angle, Action: ActionDig, DigTile: st.Block}
		}
		st.backOnLine(target)
		return n.stepOnLine(a, target)

	case PhaseSlideDigWait:
		if n.stillBlocking(st.Block) {
			return StepResult{Next: a.Pos, Angle: st.Angle, Action: ActionDig, DigTile: st.Block}
		}
		q := mathx.AngleToQuadrant(a.Angle)
		side := q + 1
		if st.Side == SideLeft {
			side = q - 1
		}
		r := a.Mover.Radius
		off := mathx.SmallAround[side&3]
		st.Next = a.Pos
		st.Next.X += (coord.TileSize/2 - r) * off.X
		st.Next.Y += (coord.TileSize/2 - r) * off.Y
		fwd := mathx.SmallAround[q]
		st.Next.X += coord.SubtileSize / 2 * fwd.X
		st.Next.Y += coord.SubtileSize / 2 * fwd.Y
		st.Angle = angleTo(a.Pos, st.Next)
		st.Phase = PhaseSlideAround
		return n.move(a)

	case PhaseSlideAround:
		if box(a.Pos, st.Next) > ArrivalSlack {
			return n.move(a)
		}
		if st.Side == SideLeft {
			st.Angle = (a.Angle + mathx.AngleQuarter) & mathx.AngleMask
		} else {
			st.Angle = (a.Angle - mathx.AngleQuarter) & mathx.AngleMask
		}
		st.Kind = WallHug
		st.Phase = PhaseNone
		st.Next = a.Pos
		st.DistToNext = 0
		return n.move(a)
	}
	st.backOnLine(target)
	return n.stepOnLine(a, target)
}
