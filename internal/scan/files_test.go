package scan

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileItem(t *testing.T) {
	info, err := os.Stat(".")
	require.NoError(t, err)
	item := NewFileItem("clips/a.MP4", info)
	assert.Equal(t, "clips/a.MP4", item.Path)
	assert.NotNil(t, item.Info)
	assert.Equal(t, VideoFile, item.Kind)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"image.PNG", ImageFile},
		{"image.jpg", ImageFile},
		{"image.jpeg", ImageFile},
		{"image.gif", ImageFile},
		{".jpeg", ImageFile},
		{"clip.mov", VideoFile},
		{"clip.webm", VideoFile},
		{"card.txt", TextFile},
		{"notes.md", Unknown},
		{"image", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.name), tt.name)
	}
	assert.Equal(t, "video", VideoFile.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestRun(t *testing.T) {
	rootDir := t.TempDir()
	sub := filepath.Join(rootDir, "sub1")
	subsub := filepath.Join(sub, "subsub")
	require.NoError(t, os.MkdirAll(subsub, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(rootDir, "empty"), 0755))

	files := map[string]int{
		filepath.Join(rootDir, "image1.png"):  10,
		filepath.Join(rootDir, "image2.JPG"):  10,
		filepath.Join(rootDir, "card.txt"):    10,
		filepath.Join(rootDir, "empty.gif"):   0,
		filepath.Join(sub, "clip.mp4"):        10,
		filepath.Join(sub, "notes.md"):        10,
		filepath.Join(subsub, "image4.PNG"):   10,
	}
	var want []string
	for p, size := range files {
		content := make([]byte, size)
		require.NoError(t, os.WriteFile(p, content, 0644))
		if size > 0 && KindOf(p) != Unknown {
			abs, err := filepath.Abs(p)
			require.NoError(t, err)
			want = append(want, abs)
		}
	}
	sort.Strings(want)

	ch := Run(rootDir, func(m string) { t.Logf("scan: %s", m) })
	done := make(chan FileItems)
	go func() { done <- Collect(ch) }()

	var found FileItems
	select {
	case found = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run timed out")
	}

	var got []string
	for _, it := range found {
		got = append(got, it.Path)
		assert.True(t, filepath.IsAbs(it.Path))
		require.NotNil(t, it.Info)
		assert.False(t, it.Info.IsDir())
		assert.NotZero(t, it.Info.Size())
		assert.NotEqual(t, Unknown, it.Kind)
	}
	assert.Equal(t, want, got)
}

func TestRunMissingDir(t *testing.T) {
	found := Collect(FileScannerImpl{}.Run(filepath.Join(t.TempDir(), "missing"), func(string) {}))
	assert.Empty(t, found)
}

func TestPermutationManager(t *testing.T) {
	items := FileItems{{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}}
	pm := NewPermutationManager(&items, 7)
	require.Equal(t, 4, pm.Len())

	first := pm.Items()
	assert.ElementsMatch(t, items, first)

	items = append(items, FileItem{Path: "e"}, FileItem{Path: "f"})
	pm.SyncNewData()
	grown := pm.Items()
	require.Len(t, grown, 6)
	assert.Equal(t, first, grown[:4], "existing order is stable")
	assert.ElementsMatch(t, FileItems{{Path: "e"}, {Path: "f"}}, grown[4:])

	again := NewPermutationManager(&items, 7).Items()
	assert.Len(t, again, 6)

	_, err := pm.Get(6)
	assert.Error(t, err)
	it, err := pm.Get(0)
	require.NoError(t, err)
	assert.Equal(t, grown[0], it)
}
