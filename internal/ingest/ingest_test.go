package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

func memTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/term/cs350.pdf":          "%PDF-1.4",
		"/term/math/calc.docx":     "PK",
		"/term/math/notes.txt":     "plain",
		"/term/.cache/old.pdf":     "%PDF-1.4",
		"/term/photos/board.HEIC":  "heic",
		"/term/photos/.hidden.png": "png",
	}
	for path, body := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
	}
	return fs
}

func TestScan(t *testing.T) {
	fs := memTree(t)

	paths, stats, err := Scan(fs, "/term", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/term/cs350.pdf",
		"/term/math/calc.docx",
		"/term/photos/board.HEIC",
	}, paths)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(4), stats.Scanned)
}

func TestScanIncludesHiddenWhenAsked(t *testing.T) {
	fs := memTree(t)

	paths, _, err := Scan(fs, "/term", false)
	require.NoError(t, err)
	assert.Contains(t, paths, "/term/.cache/old.pdf")
	assert.Contains(t, paths, "/term/photos/.hidden.png")
}

func TestScanErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, _, err := Scan(fs, "  ", true)
	assert.Error(t, err)

	_, _, err = Scan(fs, "/missing", true)
	assert.Error(t, err)
}

func TestLoadAll(t *testing.T) {
	fs := memTree(t)

	docs, err := LoadAll(fs, []string{"/term/math", "/term/cs350.pdf"}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "calc.docx", docs[0].Name)
	assert.Equal(t, constants.MIMEDOCX, docs[0].MIME)
	assert.Equal(t, "cs350.pdf", docs[1].Name)
	assert.Equal(t, constants.MIMEPDF, docs[1].MIME)
	assert.Equal(t, []byte("%PDF-1.4"), docs[1].Data)

	_, err = LoadAll(fs, []string{"/term/nope.pdf"}, nil)
	assert.Error(t, err)
}

func TestAccepted(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.pdf", true},
		{"a.PDF", true},
		{"b.xlsx", true},
		{"c.heif", true},
		{"d.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Accepted(tt.path))
		})
	}
}

func TestWatchEmitsInitialAndNewFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "existing.pdf"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial file not emitted")
	}

	added := filepath.Join(root, "new.docx")
	require.NoError(t, os.WriteFile(added, []byte("PK"), 0o644))

	select {
	case p := <-events:
		assert.Equal(t, added, p)
	case <-time.After(2 * time.Second):
		t.Fatal("new file not emitted")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchRequiresRoots(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
