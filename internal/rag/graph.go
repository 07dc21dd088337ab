package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	graphNoMatches       = "No relevant information found in knowledge graph."
	graphNoRelationships = "No relationships found."
)

// Entity is a node in the medical knowledge graph.
type Entity struct {
	Name string
	Type string
}

// RelatedEntity is a graph neighbourhood hit with its hop distance.
type RelatedEntity struct {
	Entity   string
	Distance int
	Type     string
}

// Graph is a directed graph of medical entities (symptoms, conditions,
// treatments). It is seeded once at startup and read-only afterwards;
// the mutex only guards the seeding phase against concurrent readers.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]Entity
	edges map[string][]string // source -> targets, insertion order
	order []string            // node insertion order
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Entity),
		edges: make(map[string][]string),
	}
}

// AddEntity registers a node. Re-adding an existing entity updates its
// type and keeps its original position.
func (g *Graph) AddEntity(name, entityType string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[name]; !ok {
		g.order = append(g.order, name)
	}
	g.nodes[name] = Entity{Name: name, Type: entityType}
}

// AddRelation adds a directed edge. Unknown endpoints are created as
// untyped nodes so a relation can never dangle.
func (g *Graph) AddRelation(source, target, relation string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range []string{source, target} {
		if _, ok := g.nodes[name]; !ok {
			g.nodes[name] = Entity{Name: name}
			g.order = append(g.order, name)
		}
	}
	for _, t := range g.edges[source] {
		if t == target {
			return
		}
	}
	g.edges[source] = append(g.edges[source], target)
}

// RelatedEntities returns every entity reachable from the given one
// within maxHops directed hops, with its shortest-path distance. An
// absent entity yields an empty result, not an error.
func (g *Graph) RelatedEntities(entity string, maxHops int) []RelatedEntity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[entity]; !ok {
		return nil
	}
	dist := map[string]int{entity: 0}
	frontier := []string{entity}
	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, node := range frontier {
			for _, target := range g.edges[node] {
				if _, seen := dist[target]; seen {
					continue
				}
				dist[target] = hop
				next = append(next, target)
			}
		}
		frontier = next
	}

	out := make([]RelatedEntity, 0, len(dist)-1)
	for name, d := range dist {
		if name == entity {
			continue
		}
		out = append(out, RelatedEntity{Entity: name, Distance: d, Type: g.nodes[name].Type})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Entity < out[j].Entity
	})
	return out
}

// Query does a lexical lookup: every whitespace token of the query is
// matched case-insensitively as a substring of entity names. The first
// five matching entities are rendered with up to three direct
// neighbours each. Entities without neighbours render nothing.
func (g *Graph) Query(query string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keywords := strings.Fields(strings.ToLower(query))
	var relevant []string
	for _, name := range g.order {
		lower := strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				relevant = append(relevant, name)
				break
			}
		}
	}
	if len(relevant) == 0 {
		return graphNoMatches
	}
	if len(relevant) > 5 {
		relevant = relevant[:5]
	}

	var lines []string
	for _, name := range relevant {
		neighbors := g.edges[name]
		if len(neighbors) == 0 {
			continue
		}
		if len(neighbors) > 3 {
			neighbors = neighbors[:3]
		}
		lines = append(lines, fmt.Sprintf("%s: related to %s", name, strings.Join(neighbors, ", ")))
	}
	if len(lines) == 0 {
		return graphNoRelationships
	}
	return strings.Join(lines, "\n")
}

// Size returns the number of entities in the graph.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
