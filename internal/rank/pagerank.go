package rank

import "codemap/internal/graph"

// pageRank is an explicit power iteration over the adjusted edge list.
// gonum's network.PageRank accepts neither per-edge weight overrides nor a
// personalization vector, so the walk reads g.Edges directly; that also
// keeps the low-weight self-loops in play, which the gonum structure cannot
// carry. weights[i] is the adjusted weight of g.Edges[i]. The
// personalization vector biases both the teleport term and the
// redistribution of dangling-node rank; an empty one degrades to a uniform
// teleport.
func pageRank(g *graph.Graph, weights []float64, personalization map[string]float64, cfg Config) map[string]float64 {
	files := g.Files()
	n := len(files)
	if n == 0 {
		return nil
	}

	idx := make(map[string]int, n)
	for i, f := range files {
		idx[f] = i
	}

	// Normalize the personalization vector; files with no signal get zero
	// and rely on link flow alone.
	pvec := make([]float64, n)
	var psum float64
	for f, v := range personalization {
		if i, ok := idx[f]; ok {
			pvec[i] = v
			psum += v
		}
	}
	if psum == 0 {
		for i := range pvec {
			pvec[i] = 1.0 / float64(n)
		}
	} else {
		for i := range pvec {
			pvec[i] /= psum
		}
	}

	type outEdge struct {
		to     int
		weight float64
	}
	outEdges := make([][]outEdge, n)
	outWeight := make([]float64, n)
	for i := range g.Edges {
		w := weights[i]
		if w <= 0 {
			continue
		}
		from, okF := idx[g.Edges[i].From]
		to, okT := idx[g.Edges[i].To]
		if !okF || !okT {
			continue
		}
		outEdges[from] = append(outEdges[from], outEdge{to: to, weight: w})
		outWeight[from] += w
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	next := make([]float64, n)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		for i := range next {
			next[i] = (1.0 - cfg.Damping) * pvec[i]
		}

		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				// Dangling node: redistribute along the same bias as the
				// teleport term.
				for j := range next {
					next[j] += cfg.Damping * rank[i] * pvec[j]
				}
				continue
			}
			share := cfg.Damping * rank[i] / outWeight[i]
			for _, e := range outEdges[i] {
				next[e.to] += share * e.weight
			}
		}

		var diff float64
		for i := range rank {
			d := next[i] - rank[i]
			if d < 0 {
				d = -d
			}
			diff += d
		}
		rank, next = next, rank
		if diff < cfg.Tolerance {
			break
		}
	}

	scores := make(map[string]float64, n)
	for i, f := range files {
		scores[f] = rank[i]
	}
	return scores
}
