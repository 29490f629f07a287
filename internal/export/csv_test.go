package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWrite_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	w := NewWriter(path)

	j := domain.NewJob()
	j.ID = "123"
	j.Title = "Engineer"
	j.Company = "Acme"
	j.Detail.Applicants = "12 applicants"

	require.NoError(t, w.Write([]domain.Job{j}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "123", rows[1][0])
	assert.Equal(t, "Engineer", rows[1][1])
	assert.Equal(t, "Acme", rows[1][2])
	assert.Equal(t, "12 applicants", rows[1][10])
}

func TestWrite_UnresolvedIDStillExported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	w := NewWriter(path)

	orphan := domain.NewJob()
	orphan.Title = "Mystery Role"
	require.NoError(t, w.Write([]domain.Job{orphan}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.NA, rows[1][0])
	assert.Equal(t, "Mystery Role", rows[1][1])
}

func TestWrite_OverwritesNotAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	w := NewWriter(path)

	a := domain.NewJob()
	a.ID = "1"
	b := domain.NewJob()
	b.ID = "2"

	require.NoError(t, w.Write([]domain.Job{a, b}))
	require.NoError(t, w.Write([]domain.Job{b}))

	rows := readCSV(t, path)
	require.Len(t, rows, 2, "second write replaces the file wholesale")
	assert.Equal(t, "2", rows[1][0])
}

func TestWritePartial_SuffixedArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	w := NewWriter(path)

	j := domain.NewJob()
	j.ID = "9"
	require.NoError(t, w.WritePartial([]domain.Job{j}))

	_, err := os.Stat(path + ".partial")
	assert.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "the real export is untouched")
}
