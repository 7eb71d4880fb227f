package snapshot_sync

import (
	"strings"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
)

const (
	DefaultMaxTreeDepth = 2
	DefaultMaxTreeNodes = 200
)

// DefaultTreeLimits are the budgets used when none are configured.
var DefaultTreeLimits = models.TreeLimits{MaxDepth: DefaultMaxTreeDepth, MaxNodes: DefaultMaxTreeNodes}

// treeNode is the mutable accumulator used while a tree is built. It is
// converted into models.FolderTreeNode values once construction ends.
type treeNode struct {
	path      string
	name      string
	kind      models.EntryKind
	children  []*treeNode
	byName    map[string]*treeNode
	truncated bool
}

func (n *treeNode) child(name string) *treeNode {
	return n.byName[name]
}

func (n *treeNode) addChild(child *treeNode) {
	if n.byName == nil {
		n.byName = make(map[string]*treeNode)
	}
	n.children = append(n.children, child)
	n.byName[child.name] = child
}

type treeBuilder struct {
	limits models.TreeLimits
	root   *treeNode
	// prefix is prepended to relative paths to form logical child paths.
	prefix string
	nodes  int
	// cut holds the paths of folders whose deeper content was dropped.
	cut map[string]struct{}
}

// BuildFolderTree builds the bounded tree of root's descendants out of the flat
// entries list. Entries may arrive in any order, including before their parent
// folder. The first occurrence of a name under a folder wins.
func BuildFolderTree(root *models.Entry, entries []*models.Entry, limits models.TreeLimits) *models.FolderTreeNode {
	if root == nil {
		return nil
	}
	b := newTreeBuilder(root, normalizeLimits(limits))
	for _, entry := range entries {
		if b.full() {
			b.root.truncated = true
			break
		}
		b.add(entry)
	}
	return b.freeze()
}

func normalizeLimits(limits models.TreeLimits) models.TreeLimits {
	if limits.MaxDepth < 0 {
		limits.MaxDepth = 0
	}
	if limits.MaxNodes < 1 {
		limits.MaxNodes = 1
	}
	return limits
}

func newTreeBuilder(root *models.Entry, limits models.TreeLimits) *treeBuilder {
	prefix := root.Path + "/"
	if root.IsRoot() {
		prefix = ""
	}
	return &treeBuilder{
		limits: limits,
		root:   &treeNode{path: root.Path, name: root.Name, kind: models.KindFolder},
		prefix: prefix,
		nodes:  1,
		cut:    make(map[string]struct{}),
	}
}

func (b *treeBuilder) full() bool {
	return b.nodes >= b.limits.MaxNodes
}

func (b *treeBuilder) relative(path string) (string, bool) {
	if b.prefix == "" {
		rel := strings.TrimPrefix(path, models.RootPath)
		return rel, rel != ""
	}
	if !strings.HasPrefix(path, b.prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(path, b.prefix)
	return rel, rel != ""
}

func (b *treeBuilder) add(entry *models.Entry) {
	if entry == nil {
		return
	}
	rel, ok := b.relative(entry.Path)
	if !ok {
		return
	}
	segments := strings.Split(strings.TrimSuffix(rel, "/"), "/")
	for _, segment := range segments {
		if segment == "" {
			return
		}
	}
	if len(segments) > b.limits.MaxDepth+1 {
		b.root.truncated = true
		b.cut[b.prefix+strings.Join(segments[:b.limits.MaxDepth+1], "/")] = struct{}{}
		return
	}

	cursor := b.root
	for i, segment := range segments {
		atLeaf := i == len(segments)-1
		next := cursor.child(segment)
		if next == nil {
			kind := models.KindFolder
			if atLeaf && !entry.IsFolder() {
				kind = models.KindFile
			}
			next = &treeNode{
				path: b.prefix + strings.Join(segments[:i+1], "/"),
				name: segment,
				kind: kind,
			}
			cursor.addChild(next)
			b.nodes++
			if b.full() {
				b.root.truncated = true
				return
			}
		}
		if atLeaf || next.kind != models.KindFolder {
			return
		}
		cursor = next
	}
}

func (b *treeBuilder) freeze() *models.FolderTreeNode {
	out := b.convert(b.root)
	out.Limits = &models.TreeLimits{MaxDepth: b.limits.MaxDepth, MaxNodes: b.limits.MaxNodes}
	return out
}

func (b *treeBuilder) convert(node *treeNode) *models.FolderTreeNode {
	_, cut := b.cut[node.path]
	out := &models.FolderTreeNode{
		Path:      node.path,
		Name:      node.name,
		Kind:      node.kind,
		Truncated: node.truncated || (cut && node != b.root),
	}
	if len(node.children) > 0 {
		out.Children = make([]*models.FolderTreeNode, len(node.children))
		for i, child := range node.children {
			out.Children[i] = b.convert(child)
		}
	}
	return out
}
