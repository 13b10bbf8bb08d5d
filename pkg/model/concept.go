package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyID is returned when a concept has no id.
	ErrEmptyID = errors.New("concept id is empty")
	// ErrDuplicateID is returned when two concepts share an id.
	ErrDuplicateID = errors.New("duplicate concept id")
)

// ConceptNode is one entry of the source concept tree.
// Trees are treated as immutable once loaded.
type ConceptNode struct {
	ID          string         `json:"id" yaml:"id"`
	Label       string         `json:"label" yaml:"label"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Children    []*ConceptNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf reports whether the node has no children
func (n *ConceptNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// DisplayLabel returns the label, falling back to the id
func (n *ConceptNode) DisplayLabel() string {
	if strings.TrimSpace(n.Label) != "" {
		return n.Label
	}
	return n.ID
}

// Walk visits the tree depth-first in child order. Returning false from fn
// skips the node's subtree.
func (n *ConceptNode) Walk(fn func(node *ConceptNode, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(fn, 0)
}

func (n *ConceptNode) walk(fn func(node *ConceptNode, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		child.walk(fn, depth+1)
	}
}

// Find returns the node with the given id, or nil.
func (n *ConceptNode) Find(id string) *ConceptNode {
	var found *ConceptNode
	n.Walk(func(node *ConceptNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree
func (n *ConceptNode) Count() int {
	count := 0
	n.Walk(func(*ConceptNode, int) bool {
		count++
		return true
	})
	return count
}

// Validate checks that every node has a non-empty id, that ids are unique,
// and that no node object is reachable twice.
func (n *ConceptNode) Validate() error {
	if n == nil {
		return fmt.Errorf("tree has no root")
	}

	seenIDs := make(map[string]bool)
	seenNodes := make(map[*ConceptNode]bool)

	var visit func(node *ConceptNode, path string) error
	visit = func(node *ConceptNode, path string) error {
		if seenNodes[node] {
			return fmt.Errorf("%s: node %q reached twice", path, node.ID)
		}
		seenNodes[node] = true

		if strings.TrimSpace(node.ID) == "" {
			return fmt.Errorf("%s: %w", path, ErrEmptyID)
		}
		if seenIDs[node.ID] {
			return fmt.Errorf("%s: %w: %s", path, ErrDuplicateID, node.ID)
		}
		seenIDs[node.ID] = true

		for i, child := range node.Children {
			if child == nil {
				return fmt.Errorf("%s/%s: child %d is null", path, node.ID, i)
			}
			if err := visit(child, path+"/"+node.ID); err != nil {
				return err
			}
		}
		return nil
	}

	return visit(n, "")
}
