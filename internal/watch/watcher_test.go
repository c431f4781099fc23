package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_ShouldWatch(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		exclude  []string
		path     string
		want     bool
	}{
		{
			name:     "match yaml description",
			patterns: []string{"*.yaml"},
			path:     "/project/move/app.yaml",
			want:     true,
		},
		{
			name:     "match nested json with ** pattern",
			patterns: []string{"**/*.json"},
			path:     "/project/move/normalized/app.json",
			want:     true,
		},
		{
			name:     "exclude config file",
			patterns: []string{"*.yaml"},
			exclude:  []string{"movegen.yaml"},
			path:     "/project/movegen.yaml",
			want:     false,
		},
		{
			name:     "exclude directory pattern",
			patterns: []string{"*"},
			exclude:  []string{"node_modules/"},
			path:     "/project/node_modules",
			want:     false,
		},
		{
			name:     "no match",
			patterns: []string{"*.yaml", "*.json"},
			path:     "/project/readme.md",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := &FileWatcher{
				patterns: tt.patterns,
				exclude:  tt.exclude,
			}
			assert.Equal(t, tt.want, fw.ShouldWatch(tt.path))
		})
	}
}

func TestFileWatcher_TrackedFileBypassesExclude(t *testing.T) {
	fw, err := NewFileWatcher([]string{"*.json"}, []string{"movegen.yaml"}, func([]string) {}, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()

	dir := t.TempDir()
	config := filepath.Join(dir, "movegen.yaml")
	assert.False(t, fw.ShouldWatch(config))

	require.NoError(t, fw.Track(config))
	assert.True(t, fw.ShouldWatch(config))
	assert.True(t, fw.ShouldWatch(filepath.Join(dir, ".", "movegen.yaml")))
	assert.False(t, fw.ShouldWatch(filepath.Join(dir, "sub", "movegen.yaml")))
}

func TestFileWatcher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tmpDir := t.TempDir()
	moveDir := filepath.Join(tmpDir, "move")
	require.NoError(t, os.MkdirAll(moveDir, 0755))

	var mu sync.Mutex
	var batches [][]string
	onChange := func(paths []string) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, paths)
	}

	fw, err := NewFileWatcher([]string{"*.yaml"}, []string{"node_modules"}, onChange, zerolog.Nop())
	require.NoError(t, err)
	defer fw.Close()
	fw.SetDebounce(50 * time.Millisecond)
	require.NoError(t, fw.AddDirectory(tmpDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fw.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// a burst of writes is reported once
	app := filepath.Join(moveDir, "app.yaml")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(app, []byte("address: '0x1'\n"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(moveDir, "notes.txt"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, 2*time.Second, 20*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, batches, 1)
	assert.Equal(t, []string{app}, batches[0])
}
