package layered

// isolatedWeight is the pull a node without neighbours feels toward its
// current position. It only needs to be small next to a real edge.
const isolatedWeight = 1e-3

// assignBreadth places every rank along the breadth axis.
//
// Ranks start tightly packed. Each sweep then moves the nodes of one rank as
// close as possible to the average position of their neighbours in the
// previous rank (down sweeps look at parents, up sweeps at children), solving
// the placement exactly by weighted isotonic regression under the minimum
// separation constraints. Neighbours reached through a subdivider pull
// harder, which keeps long lines straight.
func (l *layering) assignBreadth(orders map[int][]string) map[string]float64 {
	x := make(map[string]float64, l.g.NodeCount())
	maxRow := l.g.MaxRow()

	for r := 0; r <= maxRow; r++ {
		row := orders[r]
		for i, id := range row {
			if i == 0 {
				x[id] = 0
				continue
			}
			x[id] = x[row[i-1]] + l.separation(row[i-1], id)
		}
	}

	for i := 0; i < l.cfg.AlignSweeps; i++ {
		for r := 1; r <= maxRow; r++ {
			l.alignRow(orders[r], x, true)
		}
		for r := maxRow - 1; r >= 0; r-- {
			l.alignRow(orders[r], x, false)
		}
	}
	// A last downward pass settles children under their final parents.
	for r := 1; r <= maxRow; r++ {
		l.alignRow(orders[r], x, true)
	}
	return x
}

// alignRow refits the positions of one rank against its neighbours.
func (l *layering) alignRow(row []string, x map[string]float64, parents bool) {
	if len(row) == 0 {
		return
	}
	targets := make([]float64, len(row))
	weights := make([]float64, len(row))
	gaps := make([]float64, len(row)-1)

	for i, id := range row {
		t, w := l.target(id, x, parents)
		if w == 0 {
			t, w = l.target(id, x, !parents)
		}
		if w == 0 {
			t, w = x[id], isolatedWeight
		}
		targets[i], weights[i] = t, w
		if i > 0 {
			gaps[i-1] = l.separation(row[i-1], id)
		}
	}

	for i, v := range fitRow(targets, weights, gaps) {
		x[row[i]] = v
	}
}

// target returns the weighted mean position a node should take to sit on
// its edges, and the total weight of those edges. A child's ideal center is
// its parent's center plus the port offset; a parent's is the child's center
// minus it.
func (l *layering) target(id string, x map[string]float64, parents bool) (float64, float64) {
	sum, weight := 0.0, 0.0
	if parents {
		for _, e := range l.in[id] {
			w := l.edgeWeight(e.From, id)
			sum += w * (x[e.From] + e.Port)
			weight += w
		}
	} else {
		for _, e := range l.out[id] {
			w := l.edgeWeight(id, e.To)
			sum += w * (x[e.To] - e.Port)
			weight += w
		}
	}
	if weight == 0 {
		return 0, 0
	}
	return sum / weight, weight
}

// edgeWeight favours straight lines for long edges: a segment between two
// subdividers counts eight times a plain edge, a segment touching one counts
// twice.
func (l *layering) edgeWeight(from, to string) float64 {
	switch a, b := l.isDummy(from), l.isDummy(to); {
	case a && b:
		return 8
	case a || b:
		return 2
	default:
		return 1
	}
}

// fitRow minimizes Σ w_i (x_i − t_i)² subject to x_{i+1} − x_i ≥ gaps[i].
//
// Substituting y_i = x_i − c_i with c_i the running sum of gaps turns the
// constraints into y_i ≤ y_{i+1}, which pool-adjacent-violators solves
// exactly in linear time. All weights must be positive.
func fitRow(targets, weights, gaps []float64) []float64 {
	n := len(targets)
	offset := make([]float64, n)
	for i := 1; i < n; i++ {
		offset[i] = offset[i-1] + gaps[i-1]
	}

	type block struct {
		sum    float64 // Σ w·y
		weight float64 // Σ w
		count  int
	}
	mean := func(b block) float64 { return b.sum / b.weight }

	blocks := make([]block, 0, n)
	for i := range targets {
		y := targets[i] - offset[i]
		blocks = append(blocks, block{sum: weights[i] * y, weight: weights[i], count: 1})
		for len(blocks) > 1 {
			last, prev := blocks[len(blocks)-1], blocks[len(blocks)-2]
			if mean(prev) <= mean(last) {
				break
			}
			blocks = blocks[:len(blocks)-2]
			blocks = append(blocks, block{
				sum:    prev.sum + last.sum,
				weight: prev.weight + last.weight,
				count:  prev.count + last.count,
			})
		}
	}

	out := make([]float64, 0, n)
	for _, b := range blocks {
		v := mean(b)
		for j := 0; j < b.count; j++ {
			out = append(out, v+offset[len(out)])
		}
	}
	return out
}
