package snapshot_sync

import "github.com/meysamhadeli/focussync/snapshot_sync/models"

// BuildBreadcrumb returns the ancestor chain of folder, root first, folder last.
func BuildBreadcrumb(folder *models.Entry) []models.BreadcrumbEntry {
	parts := make([]models.BreadcrumbEntry, 0, 8)
	for cur := folder; cur != nil; cur = cur.Parent {
		parts = append(parts, models.BreadcrumbEntry{Path: cur.Path, Name: cur.Name})
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}
