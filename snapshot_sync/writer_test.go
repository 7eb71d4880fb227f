package snapshot_sync

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriter_WritesThroughTempFile(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "", "", nil)

	result := writer.Write([]byte(`{"a":1}`))

	assert.Equal(t, WriteAtomic, result)
	assert.Equal(t, DefaultContextPath, writer.Path())
	assert.Equal(t, DefaultContextPath+DefaultTempSuffix, writer.TempPath())
	data, err := storage.Read(DefaultContextPath)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.False(t, storage.has(writer.TempPath()))
	assert.Equal(t, 1, storage.renames)
}

func TestAtomicWriter_ReplacesExistingArtifact(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "out/context.json", ".part", nil)

	require.Equal(t, WriteAtomic, writer.Write([]byte("one")))
	require.Equal(t, WriteAtomic, writer.Write([]byte("two")))

	data, err := storage.Read("out/context.json")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.False(t, storage.has("out/context.json.part"))
}

func TestAtomicWriter_SkipsIdenticalContent(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)

	assert.Equal(t, WriteAtomic, writer.Write([]byte("same")))
	assert.Equal(t, WriteSkipped, writer.Write([]byte("same")))
	assert.Equal(t, WriteSkipped, writer.Write([]byte("same")))

	assert.Equal(t, 1, storage.writeCount("ctx.json.tmp"))
	assert.Equal(t, Fingerprint([]byte("same")), writer.LastFingerprint())
}

func TestAtomicWriter_FallsBackWithoutRename(t *testing.T) {
	storage := newMemStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)

	result := writer.Write([]byte("payload"))

	assert.Equal(t, WriteFallback, result)
	data, err := storage.Read("ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.False(t, storage.has("ctx.json.tmp"))
	assert.Equal(t, WriteSkipped, writer.Write([]byte("payload")))
}

func TestAtomicWriter_FallsBackWhenRenameFails(t *testing.T) {
	storage := newRenamingStorage()
	storage.renameErr = errors.New("cross-device link")
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)

	result := writer.Write([]byte("payload"))

	assert.Equal(t, WriteFallback, result)
	data, err := storage.Read("ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assert.False(t, storage.has("ctx.json.tmp"))
}

func TestAtomicWriter_TempFailureKeepsPreviousArtifact(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)
	require.Equal(t, WriteAtomic, writer.Write([]byte("old")))

	storage.failWrite("ctx.json.tmp", errors.New("disk full"))
	storage.failWrite("ctx.json", errors.New("disk full"))
	result := writer.Write([]byte("new"))

	assert.Equal(t, WriteFailed, result)
	data, err := storage.Read("ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
	assert.Equal(t, Fingerprint([]byte("old")), writer.LastFingerprint())
}

func TestAtomicWriter_FailureAfterTempWriteNeverLeavesNewContent(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)
	require.Equal(t, WriteAtomic, writer.Write([]byte("old")))

	storage.renameErr = errors.New("boom")
	storage.failWrite("ctx.json", errors.New("read-only"))
	result := writer.Write([]byte("new"))

	assert.Equal(t, WriteFailed, result)
	assert.Equal(t, 2, storage.writeCount("ctx.json.tmp"))
	assertOldOrAbsent(t, storage, "ctx.json", "old")
	assert.Equal(t, Fingerprint([]byte("old")), writer.LastFingerprint())
}

func TestAtomicWriter_PanicInRenameKeepsFingerprint(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)
	require.Equal(t, WriteAtomic, writer.Write([]byte("old")))

	storage.renamePanic = "power loss"
	assert.PanicsWithValue(t, "power loss", func() { writer.Write([]byte("new")) })

	assertOldOrAbsent(t, storage, "ctx.json", "old")
	assert.Equal(t, Fingerprint([]byte("old")), writer.LastFingerprint())

	storage.renamePanic = ""
	assert.Equal(t, WriteAtomic, writer.Write([]byte("new")))
	data, err := storage.Read("ctx.json")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

// assertOldOrAbsent checks the artifact is either missing or still holds old.
func assertOldOrAbsent(t *testing.T, storage *renamingStorage, path, old string) {
	t.Helper()
	data, err := storage.Read(path)
	if err != nil {
		assert.ErrorIs(t, err, fs.ErrNotExist)
		return
	}
	assert.Equal(t, old, string(data))
}

func TestAtomicWriter_RetriesAfterFailure(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)

	storage.failWrite("ctx.json.tmp", errors.New("busy"))
	storage.failWrite("ctx.json", errors.New("busy"))
	require.Equal(t, WriteFailed, writer.Write([]byte("payload")))
	assert.Empty(t, writer.LastFingerprint())
	assert.False(t, storage.has("ctx.json"))

	assert.Equal(t, WriteAtomic, writer.Write([]byte("payload")))
	assert.True(t, storage.has("ctx.json"))
}

func TestAtomicWriter_ResetForcesWrite(t *testing.T) {
	storage := newRenamingStorage()
	writer := NewAtomicWriter(storage, "ctx.json", ".tmp", nil)
	require.Equal(t, WriteAtomic, writer.Write([]byte("payload")))

	writer.Reset()

	assert.Equal(t, WriteAtomic, writer.Write([]byte("payload")))
	assert.Equal(t, 2, storage.renames)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("alpha"))

	assert.Len(t, a, 32)
	assert.Equal(t, a, Fingerprint([]byte("alpha")))
	assert.NotEqual(t, a, Fingerprint([]byte("alpha ")))
}

func TestWriteResult_String(t *testing.T) {
	assert.Equal(t, "skipped", WriteSkipped.String())
	assert.Equal(t, "atomic", WriteAtomic.String())
	assert.Equal(t, "fallback", WriteFallback.String())
	assert.Equal(t, "failed", WriteFailed.String())
}
