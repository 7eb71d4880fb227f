package vault

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/meysamhadeli/focussync/snapshot_sync"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizerOverVault(t *testing.T) {
	fs := newTestFs(t, map[string]string{
		"projects/alpha/plan.md": "# Plan\n\n## Goals\n\ngoal one\n\n## Risks\n",
		"projects/alpha/log.md":  "log",
		"projects/beta/idea.md":  "idea",
	})
	v, err := Open(fs, testBase, nil, nil)
	require.NoError(t, err)
	storage := NewStorage(fs, testBase)
	workspace := NewWorkspace(v, nil)
	clock := snapshot_sync.NewManualClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))

	opts := snapshot_sync.DefaultOptions()
	opts.Clock = clock
	sync := snapshot_sync.NewSynchronizer(snapshot_sync.Host{
		Vault:     v,
		Workspace: workspace,
		Metadata:  NewHeadingIndex(storage, nil),
		Storage:   storage,
	}, workspace, workspace, opts)
	sync.Start()

	_, err = workspace.Open("projects/alpha/plan.md")
	require.NoError(t, err)
	require.NoError(t, workspace.MoveCursor(4, 1))
	clock.Advance(opts.DebounceWindow)

	data, err := storage.Read(snapshot_sync.DefaultContextPath)
	require.NoError(t, err)
	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))

	assert.Equal(t, "projects/alpha/plan.md", *snapshot.ActiveDocumentPath)
	assert.Equal(t, "projects/alpha", *snapshot.ActiveFolderPath)
	assert.Nil(t, snapshot.ActiveDocumentAbsolutePath)
	assert.Equal(t, []string{"Plan", "Goals"}, snapshot.HeadingPath)
	assert.Equal(t, "2024-01-02T03:04:05.200Z", snapshot.UpdatedAt)
	require.Len(t, snapshot.Breadcrumb, 3)
	assert.Equal(t, "projects", snapshot.Breadcrumb[1].Path)
	require.NotNil(t, snapshot.FolderTree)
	assert.Len(t, snapshot.FolderTree.Children, 2)

	workspace.Shutdown()
	require.NoError(t, workspace.MoveCursor(6, 0))
	clock.Advance(10 * time.Second)

	after, err := storage.Read(snapshot_sync.DefaultContextPath)
	require.NoError(t, err)
	assert.Equal(t, data, after)
}
