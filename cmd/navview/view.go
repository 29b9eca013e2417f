package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"dungeonnav.ai/internal/observerproto"
	"dungeonnav.ai/internal/sim/world/kernel/coord"
)

// canvas is the part of tcell.Screen the view draws on.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

type frameView struct {
	world  string
	rows   [][]byte
	last   observerproto.TickMsg
	follow int
}

func newFrameView(boot observerproto.BootstrapResponse) *frameView {
	v := &frameView{world: boot.WorldID, last: observerproto.TickMsg{Tick: boot.Tick}}
	for _, r := range boot.Map {
		v.rows = append(v.rows, []byte(r))
	}
	return v
}

func (v *frameView) apply(msg observerproto.TickMsg) {
	for _, t := range msg.Dug {
		x, y := t[0], t[1]
		if y >= 0 && y < len(v.rows) && x >= 0 && x < len(v.rows[y]) {
			v.rows[y][x] = '.'
		}
	}
	v.last = msg
	if v.follow >= len(msg.Agents) {
		v.follow = 0
	}
}

func (v *frameView) cycleFollow() {
	if n := len(v.last.Agents); n > 0 {
		v.follow = (v.follow + 1) % n
	}
}

var glyphStyles = map[byte]tcell.Style{
	'#': tcell.StyleDefault.Foreground(tcell.ColorGray),
	'%': tcell.StyleDefault.Foreground(tcell.ColorOlive),
	'$': tcell.StyleDefault.Foreground(tcell.ColorYellow),
	'*': tcell.StyleDefault.Foreground(tcell.ColorAqua),
	'W': tcell.StyleDefault.Foreground(tcell.ColorSilver),
	',': tcell.StyleDefault.Foreground(tcell.ColorGreen),
	'~': tcell.StyleDefault.Foreground(tcell.ColorRed),
	'=': tcell.StyleDefault.Foreground(tcell.ColorBlue),
	'D': tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
	'L': tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true),
}

// agentRune labels agents a, b, c... in ID order.
func agentRune(i int) rune {
	if i < 26 {
		return rune('a' + i)
	}
	return '@'
}

// origin scrolls the map so the followed agent stays on screen.
func (v *frameView) origin(w, h int) (int, int) {
	if len(v.last.Agents) == 0 || len(v.rows) == 0 {
		return 0, 0
	}
	t := v.last.Agents[v.follow].Tile
	ox := clampOrigin(t[0]-w/2, len(v.rows[0]), w)
	oy := clampOrigin(t[1]-h/2, len(v.rows), h)
	return ox, oy
}

func clampOrigin(o, size, view int) int {
	if o > size-view {
		o = size - view
	}
	if o < 0 {
		o = 0
	}
	return o
}

// draw renders the map with the status line on the last row.
func (v *frameView) draw(c canvas, w, h int) {
	mapH := h - 1
	ox, oy := v.origin(w, mapH)
	for sy := 0; sy < mapH; sy++ {
		for sx := 0; sx < w; sx++ {
			x, y := ox+sx, oy+sy
			r, st := ' ', tcell.StyleDefault
			if y < len(v.rows) && x < len(v.rows[y]) {
				g := v.rows[y][x]
				r = rune(g)
				if s, ok := glyphStyles[g]; ok {
					st = s
				}
			}
			c.SetContent(sx, sy, r, nil, st)
		}
	}
	for i, a := range v.last.Agents {
		sx, sy := a.Tile[0]-ox, a.Tile[1]-oy
		if sx < 0 || sy < 0 || sx >= w || sy >= mapH {
			continue
		}
		st := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
		if a.Digging {
			st = st.Reverse(true)
		}
		if i == v.follow {
			st = st.Underline(true)
		}
		c.SetContent(sx, sy, agentRune(i), nil, st)
	}
	v.drawStatus(c, w, h-1)
}

func (v *frameView) drawStatus(c canvas, w, y int) {
	line := fmt.Sprintf("%s tick=%d tasks=%d", v.world, v.last.Tick, v.last.Tasks)
	if len(v.last.Agents) > 0 {
		a := v.last.Agents[v.follow]
		line += fmt.Sprintf(" | %c=%s %d,%d", agentRune(v.follow), a.ID, a.Tile[0], a.Tile[1])
		if a.Goal != nil {
			line += fmt.Sprintf(" %s->%d,%d %s", a.Goal.Kind, a.Goal.Target[0]/coord.TileSize, a.Goal.Target[1]/coord.TileSize, a.Nav)
		}
	}
	line += " | tab:follow q:quit"
	st := tcell.StyleDefault.Reverse(true)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(line) {
			r = rune(line[x])
		}
		c.SetContent(x, y, r, nil, st)
	}
}
