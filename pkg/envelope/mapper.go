package envelope

import (
	"sort"
	"strings"
)

// HierarchyDelimiter separates bucket path segments
const HierarchyDelimiter = ":"

// MapAccount maps one account name to its bucket: the target of the first
// matching rule, the fallback when provided, else the account itself.
func MapAccount(mappings []Mapping, account, fallback string) string {
	for _, m := range mappings {
		if m.Pattern.MatchString(account) {
			return m.Bucket
		}
	}
	if fallback != "" {
		return fallback
	}
	return account
}

// MapAccounts assigns every account to exactly one bucket and returns the
// bucket → accounts table. Accounts no rule matched and that are not
// income accounts are collected under the Unmapped pseudo-bucket and
// reported as a warning.
func MapAccounts(cfg *Config, accounts []string, ds *diagnostics) map[string][]string {
	remaining := make([]string, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		if !seen[a] {
			seen[a] = true
			remaining = append(remaining, a)
		}
	}
	sort.Strings(remaining)

	buckets := make(map[string][]string)
	for _, m := range cfg.Mappings {
		var next []string
		for _, a := range remaining {
			if m.Pattern.MatchString(a) {
				buckets[m.Bucket] = append(buckets[m.Bucket], a)
			} else {
				next = append(next, a)
			}
		}
		remaining = next
	}

	var unmapped []string
	for _, a := range remaining {
		if cfg.IsIncomeAccount(a) {
			continue
		}
		unmapped = append(unmapped, a)
	}

	if len(unmapped) > 0 {
		ds.warnf("mapper", nil, "unmatched accounts: %s", strings.Join(unmapped, ", "))
		buckets[UnmappedBucket] = unmapped
	}

	return buckets
}

// Node is one entry of the hierarchy arena. Children are indices into the
// owning Tree, avoiding self-referential ownership.
type Node struct {
	Path     string
	Name     string
	Real     bool
	Children []int
}

// Tree is the display hierarchy of buckets and, optionally, the real
// accounts mapped beneath them. Nodes are stored in an arena and addressed
// by index.
type Tree struct {
	nodes []Node
	index map[string]int
	roots []int
}

// NewTree returns an empty hierarchy
func NewTree() *Tree {
	return &Tree{index: make(map[string]int)}
}

// Node returns the node at index i
func (t *Tree) Node(i int) *Node {
	return &t.nodes[i]
}

// Roots returns the indices of the top-level nodes
func (t *Tree) Roots() []int {
	return t.roots
}

// Len returns the number of nodes
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Lookup returns the index of the node with the given path
func (t *Tree) Lookup(path string) (int, bool) {
	i, ok := t.index[path]
	return i, ok
}

// ensure returns the node for the bucket path, creating it and every
// container prefix above it as needed.
func (t *Tree) ensure(path string) int {
	if i, ok := t.index[path]; ok {
		return i
	}

	segments := strings.Split(path, HierarchyDelimiter)
	parent := -1
	prefix := ""
	var idx int
	for _, seg := range segments {
		if prefix == "" {
			prefix = seg
		} else {
			prefix = prefix + HierarchyDelimiter + seg
		}
		existing, ok := t.index[prefix]
		if !ok {
			t.nodes = append(t.nodes, Node{Path: prefix, Name: seg})
			existing = len(t.nodes) - 1
			t.index[prefix] = existing
			if parent == -1 {
				t.roots = append(t.roots, existing)
			} else {
				t.nodes[parent].Children = append(t.nodes[parent].Children, existing)
			}
		}
		parent = existing
		idx = existing
	}
	return idx
}

// attachReal adds a real ledger account as a leaf child of the bucket node.
func (t *Tree) attachReal(bucket int, account string) {
	key := t.nodes[bucket].Path + "\x00" + account
	if _, ok := t.index[key]; ok {
		return
	}
	t.nodes = append(t.nodes, Node{Path: account, Name: account, Real: true})
	idx := len(t.nodes) - 1
	t.index[key] = idx
	t.nodes[bucket].Children = append(t.nodes[bucket].Children, idx)
}

// sortKey orders income buckets ahead of everything else.
func sortKey(path string) string {
	if path == IncomeBucket || strings.HasPrefix(path, IncomeBucket+HierarchyDelimiter) {
		return "_" + path
	}
	return path
}

// BuildTree builds the display hierarchy from the bucket → accounts table.
// Real accounts are attached beneath their bucket only when showReal is
// set. Container nodes are created for every path prefix.
func BuildTree(buckets map[string][]string, showReal bool) *Tree {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return sortKey(names[i]) < sortKey(names[j])
	})

	t := NewTree()
	for _, name := range names {
		idx := t.ensure(name)
		if showReal {
			accounts := append([]string(nil), buckets[name]...)
			sort.Strings(accounts)
			for _, acc := range accounts {
				t.attachReal(idx, acc)
			}
		}
	}
	return t
}
