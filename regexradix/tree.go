// Package regexradix implements a prefix-sharing index over regular
// expressions: a radix tree keyed by each pattern's literal (metacharacter
// free) prefix. It lets a caller prune whole subtrees of non-matching
// patterns without evaluating every regex against every value.
//
// Items that share the exact same regex source are grouped: the first
// insert of a given source creates its payload via the caller-supplied
// constructor, and every later insert of that same source reuses it. This
// mirrors grouping identical conditions under one shared sub-matcher
// instance rather than re-evaluating the same pattern once per route.
package regexradix

import (
	"regexp"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

var warnOnce sync.Map // map[string]struct{}, regex source -> logged

func logCompileFailureOnce(source string, err error) {
	if _, loaded := warnOnce.LoadOrStore(source, struct{}{}); loaded {
		return
	}
	log.WithFields(log.Fields{
		"regex": source,
		"error": err,
	}).Error("regex compile failed, pattern treated as non-matching")
}

// metachars is the set of characters that make a regexp.Regexp source
// non-literal. A leading run of characters not in this set (and not
// escaped) is the pattern's literal prefix.
const metachars = `.^$*+?()[]{}|\`

// LiteralPrefix returns the longest leading substring of source that
// contains no regex metacharacter and no escape sequence.
func LiteralPrefix(source string) string {
	for i := 0; i < len(source); i++ {
		if strings.IndexByte(metachars, source[i]) >= 0 {
			return source[:i]
		}
	}
	return source
}

type item[T any] struct {
	source   string
	mu       sync.Mutex
	compiled *regexp.Regexp
	failed   bool
	value    T
}

func (it *item[T]) regex() (*regexp.Regexp, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.compiled != nil {
		return it.compiled, true
	}
	if it.failed {
		return nil, false
	}
	re, err := regexp.Compile(it.source)
	if err != nil {
		it.failed = true
		logCompileFailureOnce(it.source, err)
		return nil, false
	}
	it.compiled = re
	return re, true
}

type node[T any] struct {
	prefix   string
	children []*node[T]
	items    []*item[T]
}

// Tree is a regex radix tree holding values of type T, one per distinct
// regex source inserted.
type Tree[T any] struct {
	root *node[T]
}

// New returns an empty Tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{root: &node[T]{}}
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// GetOrCreate returns the value associated with source, creating it via
// create if this is the first time source has been inserted. Items sharing
// the exact same source string always share one value.
func (t *Tree[T]) GetOrCreate(source string, create func() T) T {
	lit := LiteralPrefix(source)
	return insert(t.root, lit, source, create)
}

func insert[T any](n *node[T], lit, source string, create func() T) T {
	if lit == "" {
		return attach(n, source, create)
	}
	for _, c := range n.children {
		cp := commonPrefixLen(c.prefix, lit)
		if cp == 0 {
			continue
		}
		if cp < len(c.prefix) {
			split := &node[T]{prefix: c.prefix[:cp], children: []*node[T]{c}}
			c.prefix = c.prefix[cp:]
			for i, ch := range n.children {
				if ch == c {
					n.children[i] = split
					break
				}
			}
			return insert(split, lit[cp:], source, create)
		}
		return insert(c, lit[cp:], source, create)
	}
	newChild := &node[T]{prefix: lit}
	n.children = append(n.children, newChild)
	return insert(newChild, "", source, create)
}

func attach[T any](n *node[T], source string, create func() T) T {
	for _, it := range n.items {
		if it.source == source {
			return it.value
		}
	}
	it := &item[T]{source: source, value: create()}
	n.items = append(n.items, it)
	return it.value
}

// Find returns the values of every item whose regex matches value. Descent
// visits every child whose prefix is itself a prefix of the remaining
// suffix of value; it does not short-circuit on the first match, since
// sibling prefixes may both be consistent with value.
func (t *Tree[T]) Find(value string) []T {
	var out []T
	var visit func(n *node[T], remaining string)
	visit = func(n *node[T], remaining string) {
		for _, it := range n.items {
			re, ok := it.regex()
			if !ok {
				continue
			}
			if re.MatchString(value) {
				out = append(out, it.value)
			}
		}
		for _, c := range n.children {
			if strings.HasPrefix(remaining, c.prefix) {
				visit(c, remaining[len(c.prefix):])
			}
		}
	}
	visit(t.root, value)
	return out
}

// TraceNode describes one visited radix tree node, for the trace producer.
type TraceNode struct {
	Prefix   string
	Matched  bool
	Count    int
	Children []TraceNode
}

// FindTrace performs the same descent as Find but additionally returns a
// shadow tree describing which nodes were visited and which items matched.
func (t *Tree[T]) FindTrace(value string) ([]T, TraceNode) {
	var out []T
	var visit func(n *node[T], remaining, prefixSoFar string) TraceNode
	visit = func(n *node[T], remaining, prefixSoFar string) TraceNode {
		matchedHere := 0
		for _, it := range n.items {
			re, ok := it.regex()
			if !ok {
				continue
			}
			if re.MatchString(value) {
				out = append(out, it.value)
				matchedHere++
			}
		}
		tn := TraceNode{Prefix: prefixSoFar, Matched: matchedHere > 0, Count: len(n.items)}
		for _, c := range n.children {
			if strings.HasPrefix(remaining, c.prefix) {
				tn.Children = append(tn.Children, visit(c, remaining[len(c.prefix):], prefixSoFar+c.prefix))
			}
		}
		return tn
	}
	root := visit(t.root, value, "")
	return out, root
}

// Remove deletes the item for the exact regex source, if present.
// removeValue is invoked on the stored value and must report whether the
// value is now empty and can be detached from the tree.
func (t *Tree[T]) Remove(source string, removeValue func(T) bool) bool {
	lit := LiteralPrefix(source)
	removed := removeAt(t.root, lit, source, removeValue)
	return removed
}

func removeAt[T any](n *node[T], lit, source string, removeValue func(T) bool) bool {
	if lit == "" {
		for i, it := range n.items {
			if it.source != source {
				continue
			}
			if removeValue(it.value) {
				n.items = append(n.items[:i], n.items[i+1:]...)
			}
			return true
		}
		return false
	}
	for ci, c := range n.children {
		cp := commonPrefixLen(c.prefix, lit)
		if cp != len(c.prefix) {
			continue
		}
		removed := removeAt(c, lit[cp:], source, removeValue)
		if removed {
			collapse(n, c, ci)
		}
		return removed
	}
	return false
}

// collapse merges a now-possibly-empty child back into its parent, per the
// "node becomes empty and has <=1 child" rule.
func collapse[T any](parent *node[T], c *node[T], idx int) {
	if len(c.items) > 0 || len(c.children) > 1 {
		return
	}
	if len(c.children) == 0 {
		parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
		return
	}
	only := c.children[0]
	only.prefix = c.prefix + only.prefix
	parent.children[idx] = only
}

// Cache eagerly compiles up to limit uncompiled regexes, visiting nodes no
// deeper than level (a negative level means unlimited depth). It returns
// the remaining budget.
func (t *Tree[T]) Cache(limit, level int) int {
	var visit func(n *node[T], depth int)
	visit = func(n *node[T], depth int) {
		if level >= 0 && depth > level {
			return
		}
		for _, it := range n.items {
			if limit <= 0 {
				return
			}
			it.mu.Lock()
			needsCompile := it.compiled == nil && !it.failed
			it.mu.Unlock()
			if needsCompile {
				it.regex()
				limit--
			}
		}
		for _, c := range n.children {
			if limit <= 0 {
				return
			}
			visit(c, depth+1)
		}
	}
	visit(t.root, 0)
	return limit
}

// Len returns the total number of distinct regex sources stored.
func (t *Tree[T]) Len() int {
	var n int
	var visit func(*node[T])
	visit = func(nd *node[T]) {
		n += len(nd.items)
		for _, c := range nd.children {
			visit(c)
		}
	}
	visit(t.root)
	return n
}
