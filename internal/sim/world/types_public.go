package world

import (
	"dungeonnav.ai/internal/protocol"
	modelpkg "dungeonnav.ai/internal/sim/world/kernel/model"
)

type Agent = modelpkg.Agent
type Goal = modelpkg.Goal
type GoalKind = modelpkg.GoalKind

const (
	GoalMoveTo = modelpkg.GoalMoveTo
	GoalDigTo  = modelpkg.GoalDigTo
)

type Command = protocol.Command
