package trie

import (
	"path/filepath"
	"sort"
	"strings"
)

// Nodes live in one slice and refer to each other by index.

// NodeIndex is the position of a node in its arena.
type NodeIndex int

// Arena owns every node of one trie.
type Arena struct {
	nodes []arenaNode
}

type arenaNode struct {
	// children maps a path segment to the index of the child node.
	children map[string]NodeIndex
	// isEnd marks the last segment of an inserted sequence.
	isEnd bool
}

// NewArena creates an arena holding only the root node.
func NewArena() *Arena {
	arena := &Arena{nodes: make([]arenaNode, 0, 64)}
	arena.newNode()
	return arena
}

func (a *Arena) newNode() NodeIndex {
	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, arenaNode{children: make(map[string]NodeIndex)})
	return idx
}

// Insert adds sequence to the trie.
func (a *Arena) Insert(sequence []string) {
	current := NodeIndex(0)
	for _, part := range sequence {
		childIdx, exists := a.nodes[current].children[part]
		if !exists {
			childIdx = a.newNode()
			a.nodes[current].children[part] = childIdx
		}
		current = childIdx
	}
	a.nodes[current].isEnd = true
}

// HasPrefix reports whether some inserted sequence is a prefix of sequence.
// A sequence is a prefix of itself.
func (a *Arena) HasPrefix(sequence []string) bool {
	current := NodeIndex(0)
	if a.nodes[current].isEnd {
		return true
	}
	for _, part := range sequence {
		next, ok := a.nodes[current].children[part]
		if !ok {
			return false
		}
		if a.nodes[next].isEnd {
			return true
		}
		current = next
	}
	return false
}

// Len returns the number of nodes, root included.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// DebugString renders the trie as nested key(children) groups, with `*`
// marking the end of an inserted sequence.
func (a *Arena) DebugString() string {
	var sb strings.Builder
	a.writeNode(&sb, NodeIndex(0))
	return sb.String()
}

func (a *Arena) writeNode(sb *strings.Builder, idx NodeIndex) {
	node := a.nodes[idx]
	if node.isEnd {
		sb.WriteString("*")
	}

	keys := make([]string, 0, len(node.children))
	for key := range node.children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString("(")
		a.writeNode(sb, node.children[key])
		sb.WriteString(")")
	}
}

// Trie matches file system paths by their leading segments.
type Trie struct {
	arena *Arena
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{arena: NewArena()}
}

// Insert adds a segment sequence.
func (t *Trie) Insert(sequence []string) {
	t.arena.Insert(sequence)
}

// HasPrefix reports whether an inserted sequence is a prefix of sequence.
func (t *Trie) HasPrefix(sequence []string) bool {
	return t.arena.HasPrefix(sequence)
}

// InsertPath adds path, split into its cleaned segments.
func (t *Trie) InsertPath(path string) {
	t.Insert(Segments(path))
}

// MatchPath reports whether path equals or lies under an inserted path.
func (t *Trie) MatchPath(path string) bool {
	return t.HasPrefix(Segments(path))
}

// DebugString renders the trie for debugging.
func (t *Trie) DebugString() string {
	return t.arena.DebugString()
}

// Segments splits a cleaned, slash-separated path into its parts. The
// current directory yields no segments.
func Segments(path string) []string {
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == "." {
		return nil
	}
	clean = strings.TrimPrefix(clean, "./")
	var parts []string
	for _, part := range strings.Split(clean, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
