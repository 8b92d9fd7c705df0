// Package graph models a stack's resources as an explicit directed acyclic
// graph so creation and teardown can be ordered deterministically.
//
// Edges point from a resource to the resources it depends on. A node may only
// name predecessors that were added before it, which keeps every Graph
// acyclic by construction.
package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a node by the platform resource it declares.
type Kind string

const (
	KindStorageBucket    Kind = "storage-bucket"
	KindContentDeploy    Kind = "content-deployment"
	KindAccessIdentity   Kind = "access-identity"
	KindPolicyBinding    Kind = "access-policy-binding"
	KindEdgeDistribution Kind = "edge-distribution"
	KindDNSAliasRecord   Kind = "dns-alias-record"
)

var (
	ErrEmptyID           = errors.New("graph: node id is empty")
	ErrDuplicateNode     = errors.New("graph: duplicate node")
	ErrUnknownDependency = errors.New("graph: unknown dependency")
	ErrSelfDependency    = errors.New("graph: node depends on itself")
	ErrUnknownNode       = errors.New("graph: unknown node")
)

// Node is a single resource declaration and its predecessors.
type Node struct {
	ID        string
	Kind      Kind
	DependsOn []string
}

// Graph is an insertion-ordered resource DAG. The zero value is not usable;
// call New.
type Graph struct {
	nodes map[string]*Node
	order []string
}

func New() *Graph {
	return &Graph{nodes: map[string]*Node{}}
}

// Add registers a node. Every dependency must already be present.
func (g *Graph) Add(id string, kind Kind, dependsOn ...string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyID
	}
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}

	deps := make([]string, 0, len(dependsOn))
	seen := make(map[string]bool, len(dependsOn))
	for _, dep := range dependsOn {
		dep = strings.TrimSpace(dep)
		if dep == id {
			return fmt.Errorf("%w: %s", ErrSelfDependency, id)
		}
		if _, ok := g.nodes[dep]; !ok {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, id, dep)
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}

	g.nodes[id] = &Node{ID: id, Kind: kind, DependsOn: deps}
	g.order = append(g.order, id)
	return nil
}

// MustAdd is Add for statically known topologies; it panics on error.
func (g *Graph) MustAdd(id string, kind Kind, dependsOn ...string) {
	if err := g.Add(id, kind, dependsOn...); err != nil {
		panic(err)
	}
}

func (g *Graph) Len() int {
	return len(g.order)
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Nodes returns copies of all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, copyNode(g.nodes[id]))
	}
	return out
}

// Predecessors returns the direct dependencies of id.
func (g *Graph) Predecessors(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return append([]string(nil), n.DependsOn...), nil
}

// Successors returns the nodes that depend directly on id, in insertion order.
func (g *Graph) Successors(id string) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	var out []string
	for _, other := range g.order {
		for _, dep := range g.nodes[other].DependsOn {
			if dep == id {
				out = append(out, other)
				break
			}
		}
	}
	return out, nil
}

// Leaves returns the nodes without dependencies, in insertion order.
func (g *Graph) Leaves() []string {
	var out []string
	for _, id := range g.order {
		if len(g.nodes[id].DependsOn) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Levels groups nodes into provisioning waves. Every node in wave i depends
// only on nodes in earlier waves, so the members of one wave may be created
// concurrently. Within a wave nodes keep insertion order.
func (g *Graph) Levels() [][]string {
	depth := make(map[string]int, len(g.order))
	maxDepth := -1
	for _, id := range g.order {
		d := 0
		for _, dep := range g.nodes[id].DependsOn {
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, id := range g.order {
		levels[depth[id]] = append(levels[depth[id]], id)
	}
	return levels
}

// CreationOrder returns a leaf-first topological order.
//
// Ties are broken by insertion order, so the result is stable across runs.
func (g *Graph) CreationOrder() []string {
	indegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.nodes[id].DependsOn)
	}
	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}
	dependents := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		for _, dep := range g.nodes[id].DependsOn {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		next := 0
		for i := range ready {
			if position[ready[i]] < position[ready[next]] {
				next = i
			}
		}
		id := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		out = append(out, id)

		for _, succ := range dependents[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	return out
}

// DestructionOrder is the reverse of CreationOrder: dependents are torn down
// before what they depend on.
func (g *Graph) DestructionOrder() []string {
	order := g.CreationOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func copyNode(n *Node) Node {
	return Node{
		ID:        n.ID,
		Kind:      n.Kind,
		DependsOn: append([]string(nil), n.DependsOn...),
	}
}
