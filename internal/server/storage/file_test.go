package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pinsync/internal/common"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

func samplePins() []models.Pin {
	return []models.Pin{
		{ID: "a", Owner: "c1", Position: &models.LatLng{Lat: 56.95, Lng: 24.1}, Updated: 100, Visible: true},
		{ID: "b", Owner: "c2", Position: &models.LatLng{Lat: -1, Lng: 2}, Updated: 200, Visible: true},
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "sub", "pins.json"))
	require.NoError(t, err)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pins.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, samplePins()))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, samplePins(), got)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Save(ctx, nil))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
	require.NoError(t, s.Close())
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "a", `), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, common.ErrCorruptStore)
}

func TestFileStore_BlankDocumentIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_ReadError(t *testing.T) {
	dir := t.TempDir()
	// a directory in place of the document
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrCorruptStore)
}
