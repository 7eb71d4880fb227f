package models

// Snapshot describes what the user is currently looking at. It is the
// document persisted for out-of-process consumers. A Snapshot is built once
// and never mutated afterwards.
type Snapshot struct {
	ActiveDocumentPath         *string           `json:"activeDocumentPath"`
	ActiveFolderPath           *string           `json:"activeFolderPath"`
	ActiveDocumentAbsolutePath *string           `json:"activeDocumentAbsolutePath"`
	ActiveFolderAbsolutePath   *string           `json:"activeFolderAbsolutePath"`
	UpdatedAt                  string            `json:"updatedAt"`
	Breadcrumb                 []BreadcrumbEntry `json:"breadcrumb"`
	FolderTree                 *FolderTreeNode   `json:"folderTree"`
	HeadingPath                []string          `json:"headingPath"`
	CursorLine                 *int              `json:"cursorLine"`
	CursorColumn               *int              `json:"cursorColumn"`
	SelectionText              string            `json:"selectionText,omitempty"`
}

// BreadcrumbEntry is one folder on the path from the hierarchy root to the
// active folder.
type BreadcrumbEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// FolderTreeNode is a node of the bounded folder tree.
type FolderTreeNode struct {
	Path      string            `json:"path"`
	Name      string            `json:"name"`
	Kind      EntryKind         `json:"kind"`
	Children  []*FolderTreeNode `json:"children,omitempty"`
	Truncated bool              `json:"truncated,omitempty"`
	Limits    *TreeLimits       `json:"limits,omitempty"`
}

// TreeLimits are the budgets a folder tree was built with.
type TreeLimits struct {
	MaxDepth int `json:"maxDepth"`
	MaxNodes int `json:"maxNodes"`
}

// Heading is a single heading of a document as reported by the metadata index.
type Heading struct {
	Level     int
	Title     string
	StartLine int
}

// Position is a zero-based cursor position.
type Position struct {
	Line   int
	Column int
}
