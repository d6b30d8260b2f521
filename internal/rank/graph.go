package rank

import (
	"errors"
	"math"
)

// edge is a directed, identifier-labeled edge. The graph is a multigraph:
// the same (src, dst) pair may appear once per identifier.
type edge struct {
	target int
	ident  string
	weight float64
}

// Graph is a sparse directed multigraph over relative file paths.
type Graph struct {
	nodes   []string
	nodeIdx map[string]int

	// Adjacency list: outEdges[i] = outgoing edges of node i
	outEdges [][]edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeIdx: make(map[string]int),
	}
}

// AddNode adds a node if it doesn't exist, returns its index.
func (g *Graph) AddNode(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	return idx
}

// AddEdge adds a directed edge labeled with the identifier that caused it.
func (g *Graph) AddEdge(src, dst, ident string, weight float64) {
	srcIdx := g.AddNode(src)
	dstIdx := g.AddNode(dst)
	g.outEdges[srcIdx] = append(g.outEdges[srcIdx], edge{target: dstIdx, ident: ident, weight: weight})
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, edges := range g.outEdges {
		total += len(edges)
	}
	return total
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

var errDegenerate = errors.New("pagerank did not produce a usable distribution")

// PageRank computes personalized PageRank scores per node. The teleport
// vector is proportional to personalization for the nodes it names, or
// uniform when personalization is empty. Dangling mass is redistributed
// along the teleport vector.
func (g *Graph) PageRank(personalization map[string]float64, damping, tolerance float64, maxIterations int) (map[string]float64, error) {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}, nil
	}

	if damping <= 0 || damping >= 1 {
		damping = 0.85
	}
	if tolerance <= 0 {
		tolerance = 1e-6
	}
	if maxIterations <= 0 {
		maxIterations = 100
	}

	// Build the teleport vector
	teleport := make([]float64, n)
	persTotal := 0.0
	for id, mass := range personalization {
		if idx, ok := g.nodeIdx[id]; ok && mass > 0 {
			teleport[idx] = mass
			persTotal += mass
		}
	}
	if persTotal > 0 {
		for i := range teleport {
			teleport[i] /= persTotal
		}
	} else {
		uniform := 1.0 / float64(n)
		for i := range teleport {
			teleport[i] = uniform
		}
	}

	// Pre-compute out-degree normalization
	outWeight := make([]float64, n)
	for i, edges := range g.outEdges {
		for _, e := range edges {
			outWeight[i] += e.weight
		}
	}

	scores := make([]float64, n)
	copy(scores, teleport)
	newScores := make([]float64, n)

	for iter := 0; iter < maxIterations; iter++ {
		for i := range newScores {
			newScores[i] = 0
		}

		// Propagate scores along edges; collect dangling mass
		dangling := 0.0
		for i, edges := range g.outEdges {
			if outWeight[i] == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / outWeight[i]
			for _, e := range edges {
				newScores[e.target] += contrib * e.weight
			}
		}

		maxDiff := 0.0
		for i := range newScores {
			newScores[i] = damping*(newScores[i]+dangling*teleport[i]) + (1-damping)*teleport[i]
			diff := math.Abs(newScores[i] - scores[i])
			if diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < tolerance {
			break
		}
	}

	total := 0.0
	for _, s := range scores {
		total += s
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil, errDegenerate
	}

	out := make(map[string]float64, n)
	for i, s := range scores {
		out[g.nodes[i]] = s
	}
	return out, nil
}

// FlatRanks is the fallback distribution when PageRank fails: every node
// gets equal base mass, personalization proportions are respected, and
// the result is normalized to sum 1.
func (g *Graph) FlatRanks(personalization map[string]float64) map[string]float64 {
	n := len(g.nodes)
	if n == 0 {
		return map[string]float64{}
	}

	base := 1.0 / float64(n)
	out := make(map[string]float64, n)
	total := 0.0
	for _, id := range g.nodes {
		mass := base
		if p, ok := personalization[id]; ok && p > 0 {
			mass = p
		}
		out[id] = mass
		total += mass
	}
	if total > 0 {
		for id := range out {
			out[id] /= total
		}
	}
	return out
}
