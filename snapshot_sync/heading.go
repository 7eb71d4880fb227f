package snapshot_sync

import "github.com/meysamhadeli/focussync/snapshot_sync/models"

// ResolveHeadingPath returns the titles of the headings enclosing cursorLine,
// outermost first. Headings must be in document order. The result is never nil.
func ResolveHeadingPath(headings []models.Heading, cursorLine int) []string {
	stack := make([]models.Heading, 0, len(headings))
	for _, heading := range headings {
		if heading.StartLine > cursorLine {
			break
		}
		// A heading of equal or shallower level closes the open sections below it.
		for len(stack) > 0 && stack[len(stack)-1].Level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, heading)
	}

	titles := make([]string, len(stack))
	for i, heading := range stack {
		titles[i] = heading.Title
	}
	return titles
}
