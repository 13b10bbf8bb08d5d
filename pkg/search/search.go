// Package search finds concepts by label, id or description.
package search

import (
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"

	"github.com/sahilm/fuzzy"
)

// MatchKind says which field a result matched on
type MatchKind int

const (
	// MatchLabel is a fuzzy match on "label id"
	MatchLabel MatchKind = iota
	// MatchDescription is a case-insensitive substring match on the description
	MatchDescription
)

// Result is one search hit.
type Result struct {
	ID    string
	Label string
	Kind  MatchKind
	Score int
	// MatchedIndexes are byte offsets into Label that matched, for highlighting
	MatchedIndexes []int
}

type entry struct {
	id, label, description string
}

// entries adapts the index to fuzzy.Source.
type entries []entry

func (e entries) String(i int) string { return e[i].label + " " + e[i].id }
func (e entries) Len() int            { return len(e) }

// Index is a searchable snapshot of a concept tree.
type Index struct {
	entries entries
}

// NewIndex indexes every concept of root in walk order.
func NewIndex(root *model.ConceptNode) *Index {
	idx := &Index{}
	root.Walk(func(n *model.ConceptNode, _ int) bool {
		idx.entries = append(idx.entries, entry{
			id:          n.ID,
			label:       n.DisplayLabel(),
			description: n.Description,
		})
		return true
	})
	return idx
}

// Len returns the number of indexed concepts
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Find ranks label matches by fuzzy score, then appends description
// substring matches not already found. An empty query finds nothing.
// limit <= 0 means no limit.
func (idx *Index) Find(query string, limit int) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(idx.entries) == 0 {
		return nil
	}

	var results []Result
	seen := make(map[int]bool)

	for _, m := range fuzzy.FindFrom(query, idx.entries) {
		e := idx.entries[m.Index]
		seen[m.Index] = true
		results = append(results, Result{
			ID:             e.id,
			Label:          e.label,
			Kind:           MatchLabel,
			Score:          m.Score,
			MatchedIndexes: labelIndexes(m.MatchedIndexes, e.label),
		})
	}

	lower := strings.ToLower(query)
	for i, e := range idx.entries {
		if seen[i] || e.description == "" {
			continue
		}
		if strings.Contains(strings.ToLower(e.description), lower) {
			results = append(results, Result{ID: e.id, Label: e.label, Kind: MatchDescription})
		}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// labelIndexes keeps the matched positions that fall inside the label part
// of the searched string.
func labelIndexes(matched []int, label string) []int {
	n := len(label)
	out := make([]int, 0, len(matched))
	for _, i := range matched {
		if i < n {
			out = append(out, i)
		}
	}
	return out
}
