package eeprom

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/softeeprom/bus"
	"github.com/ardnew/softeeprom/pkg"
)

// ErrNodeExists indicates a node name is already published.
var ErrNodeExists = errors.New("node already exists")

// Node describes a published device node.
type Node struct {
	Name     string
	Minor    Minor
	Address  bus.Addr
	Capacity uint32
}

// NodePublisher exposes device nodes to whatever serves the file-like
// surface to callers.
type NodePublisher interface {
	// Publish makes node visible. It fails if the name is taken.
	Publish(node Node) error

	// Unpublish removes the node with the given name.
	Unpublish(name string) error
}

// NodeTable is an in-memory NodePublisher.
type NodeTable struct {
	nodes map[string]Node
	mutex sync.RWMutex
}

// NewNodeTable creates an empty node table.
func NewNodeTable() *NodeTable {
	return &NodeTable{nodes: make(map[string]Node)}
}

// Publish implements NodePublisher.
func (t *NodeTable) Publish(node Node) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.nodes[node.Name]; ok {
		return fmt.Errorf("%s: %w", node.Name, ErrNodeExists)
	}
	t.nodes[node.Name] = node
	return nil
}

// Unpublish implements NodePublisher.
func (t *NodeTable) Unpublish(name string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.nodes[name]; !ok {
		return fmt.Errorf("%s: %w", name, pkg.ErrNotFound)
	}
	delete(t.nodes, name)
	return nil
}

// Resolve returns the node with the given name.
func (t *NodeTable) Resolve(name string) (Node, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	node, ok := t.nodes[name]
	return node, ok
}

// Nodes returns all published nodes ordered by minor id.
func (t *NodeTable) Nodes() []Node {
	t.mutex.RLock()
	result := make([]Node, 0, len(t.nodes))
	for _, node := range t.nodes {
		result = append(result, node)
	}
	t.mutex.RUnlock()

	slices.SortFunc(result, func(a, b Node) int {
		if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

var _ NodePublisher = (*NodeTable)(nil)
