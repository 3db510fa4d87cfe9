package layout

import (
	"math"
	"math/rand"

	"github.com/pipewalk/pipewalk/dag"
)

const (
	forceIterations = 50
	forceSeed       = 1 // fixed seed keeps renders of the same graph identical
)

// forceDirected is the fallback for graphs the layered pass cannot
// order (cycles). It runs a Fruchterman-Reingold style simulation in
// the unit square: all node pairs repel, edges attract, temperature
// decays linearly.
func forceDirected(g *dag.Graph) map[dag.NodeID]point {
	nodes := g.Nodes()
	n := len(nodes)
	positions := make(map[dag.NodeID]point, n)
	if n == 0 {
		return positions
	}
	if n == 1 {
		positions[nodes[0].ID] = point{x: 0.5, y: 0.5}
		return positions
	}

	rng := rand.New(rand.NewSource(forceSeed))
	pos := make([]point, n)
	index := make(map[dag.NodeID]int, n)
	for i, node := range nodes {
		pos[i] = point{x: rng.Float64(), y: rng.Float64()}
		index[node.ID] = i
	}

	var edges [][2]int
	for _, e := range g.Edges() {
		from, okFrom := index[e.From]
		to, okTo := index[e.To]
		if okFrom && okTo && from != to {
			edges = append(edges, [2]int{from, to})
		}
	}

	k := math.Sqrt(1.0 / float64(n))
	temperature := 0.1

	disp := make([]point, n)
	for iter := 0; iter < forceIterations; iter++ {
		for i := range disp {
			disp[i] = point{}
		}

		// Repulsion between all pairs.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := pos[i].x - pos[j].x
				dy := pos[i].y - pos[j].y
				dist := math.Hypot(dx, dy)
				if dist < 1e-9 {
					dx, dy, dist = 1e-3, 1e-3, math.Sqrt2*1e-3
				}
				f := k * k / dist
				disp[i].x += dx / dist * f
				disp[i].y += dy / dist * f
				disp[j].x -= dx / dist * f
				disp[j].y -= dy / dist * f
			}
		}

		// Attraction along edges.
		for _, e := range edges {
			i, j := e[0], e[1]
			dx := pos[i].x - pos[j].x
			dy := pos[i].y - pos[j].y
			dist := math.Hypot(dx, dy)
			if dist < 1e-9 {
				continue
			}
			f := dist * dist / k
			disp[i].x -= dx / dist * f
			disp[i].y -= dy / dist * f
			disp[j].x += dx / dist * f
			disp[j].y += dy / dist * f
		}

		for i := 0; i < n; i++ {
			d := math.Hypot(disp[i].x, disp[i].y)
			if d < 1e-9 {
				continue
			}
			step := math.Min(d, temperature)
			pos[i].x += disp[i].x / d * step
			pos[i].y += disp[i].y / d * step
		}

		temperature *= 1 - float64(iter)/float64(forceIterations)
		if temperature < 1e-4 {
			temperature = 1e-4
		}
	}

	normalize(pos)
	for id, i := range index {
		positions[id] = pos[i]
	}
	return positions
}

// normalize rescales positions into the unit square, centering any
// axis with no spread.
func normalize(pos []point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX = math.Min(minX, p.x)
		minY = math.Min(minY, p.y)
		maxX = math.Max(maxX, p.x)
		maxY = math.Max(maxY, p.y)
	}

	spanX := maxX - minX
	spanY := maxY - minY
	for i := range pos {
		if spanX > 1e-9 {
			pos[i].x = (pos[i].x - minX) / spanX
		} else {
			pos[i].x = 0.5
		}
		if spanY > 1e-9 {
			pos[i].y = (pos[i].y - minY) / spanY
		} else {
			pos[i].y = 0.5
		}
	}
}
