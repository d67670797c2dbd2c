// Package addons resolves Odoo addon dependency graphs from manifest files
// and computes installation orders.
package addons

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Graph is an addon dependency graph. Edges run dependency to dependent,
// so the install order lists dependencies first.
type Graph struct {
	nodes    map[string]bool
	order    []string // first-seen order, keeps output deterministic
	edges    map[string][]string
	incoming map[string][]string
	edgeSet  map[string]bool
	missing  []string
	paths    map[string]string
}

// CycleError reports a dependency cycle that prevents an install order.
type CycleError struct {
	Addons []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.Addons, ", "))
}

type queueItem struct {
	name  string
	depth int
}

// Build expands the dependency graph of the root addons breadth-first
// across the addons paths. Expansion stops at maxDepth levels below the
// roots; a negative maxDepth means unlimited. Addons that no path contains
// are recorded as missing, not treated as fatal.
func Build(addonsPaths, roots []string, maxDepth int) (*Graph, error) {
	g := &Graph{
		nodes:    map[string]bool{},
		edges:    map[string][]string{},
		incoming: map[string][]string{},
		edgeSet:  map[string]bool{},
		paths:    map[string]string{},
	}

	queue := make([]queueItem, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, queueItem{name: r})
	}
	seen := make(map[string]bool)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if seen[item.name] {
			continue
		}
		seen[item.name] = true
		g.addNode(item.name)

		if maxDepth >= 0 && item.depth >= maxDepth {
			continue
		}

		dir := findAddon(addonsPaths, item.name)
		if dir == "" {
			g.missing = append(g.missing, item.name)
			continue
		}
		g.paths[item.name] = dir

		manifest, err := ReadManifest(dir)
		if err != nil {
			return nil, err
		}
		for _, dep := range manifest.Depends {
			g.addEdge(dep, item.name)
			if !seen[dep] {
				queue = append(queue, queueItem{name: dep, depth: item.depth + 1})
			}
		}
	}

	return g, nil
}

func (g *Graph) addNode(name string) {
	if !g.nodes[name] {
		g.nodes[name] = true
		g.order = append(g.order, name)
	}
}

func (g *Graph) addEdge(dep, dependent string) {
	g.addNode(dep)
	g.addNode(dependent)

	key := dep + "->" + dependent
	if g.edgeSet[key] {
		return
	}
	g.edgeSet[key] = true
	g.edges[dep] = append(g.edges[dep], dependent)
	g.incoming[dependent] = append(g.incoming[dependent], dep)
}

// Len returns the number of addons in the graph.
func (g *Graph) Len() int { return len(g.order) }

// Addons returns every addon in the graph in first-seen order.
func (g *Graph) Addons() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Dependencies returns the direct dependencies of the addon.
func (g *Graph) Dependencies(name string) []string {
	deps := g.incoming[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the addons directly depending on the addon.
func (g *Graph) Dependents(name string) []string {
	deps := g.edges[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Missing returns the addons referenced by a manifest but found in no
// addons path.
func (g *Graph) Missing() []string {
	out := make([]string, len(g.missing))
	copy(out, g.missing)
	return out
}

// Path returns the resolved directory of the addon.
func (g *Graph) Path(name string) (string, bool) {
	dir, ok := g.paths[name]
	return dir, ok
}

// InstallOrder returns the addons sorted so every dependency precedes its
// dependents. Ties break on first-seen order, so the result is stable for
// a given graph. A cycle yields a *CycleError naming the addons involved.
func (g *Graph) InstallOrder() ([]string, error) {
	position := make(map[string]int, len(g.order))
	for i, name := range g.order {
		position[name] = i
	}

	inDegree := make(map[string]int, len(g.order))
	for name := range g.nodes {
		inDegree[name] = len(g.incoming[name])
	}

	frontier := make([]string, 0)
	for name, degree := range inDegree {
		if degree == 0 {
			frontier = append(frontier, name)
		}
	}
	sort.Slice(frontier, func(a, b int) bool {
		return position[frontier[a]] < position[frontier[b]]
	})

	out := make([]string, 0, len(inDegree))
	for len(frontier) > 0 {
		out = append(out, frontier...)

		next := make([]string, 0)
		for _, name := range frontier {
			for _, dependent := range g.edges[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Slice(next, func(a, b int) bool {
			return position[next[a]] < position[next[b]]
		})
		frontier = next
	}

	if len(out) != len(inDegree) {
		cycle := make([]string, 0)
		for name, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, &CycleError{Addons: cycle}
	}

	return out, nil
}

// findAddon returns the addon's directory within the addons paths, or ""
// when no path contains it.
func findAddon(addonsPaths []string, name string) string {
	for _, root := range addonsPaths {
		dir := filepath.Join(root, name)
		if IsAddon(dir) {
			return dir
		}
	}
	return ""
}
