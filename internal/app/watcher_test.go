package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watcherFixture struct {
	path    string
	calls   atomic.Int32
	err     error
	watcher *Watcher
}

func newWatcherFixture(t *testing.T, debounce time.Duration) *watcherFixture {
	t.Helper()

	fixture := &watcherFixture{
		path: filepath.Join(t.TempDir(), "ProductsUrls.txt"),
	}

	require.NoError(t, os.WriteFile(fixture.path, []byte("https://one.test/a\n"), 0o644))

	reload := func(ctx context.Context) error {
		fixture.calls.Add(1)
		return fixture.err
	}

	fixture.watcher = NewWatcher(fixture.path, debounce, reload, createTestLogger())

	return fixture
}

func (f *watcherFixture) touch(t *testing.T, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(f.path, []byte(content), 0o644))
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	fixture := newWatcherFixture(t, 50*time.Millisecond)

	require.NoError(t, fixture.watcher.Start(context.Background()))
	defer fixture.watcher.Stop()

	fixture.touch(t, "https://one.test/a\nhttps://one.test/b\n")

	require.Eventually(t, func() bool {
		return fixture.calls.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherDebouncesEventBursts(t *testing.T) {
	fixture := newWatcherFixture(t, 150*time.Millisecond)

	require.NoError(t, fixture.watcher.Start(context.Background()))
	defer fixture.watcher.Stop()

	for i := 0; i < 5; i++ {
		fixture.touch(t, "https://one.test/a\n")
	}

	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, int32(1), fixture.calls.Load(), "a burst of writes should collapse into one reload")
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	fixture := newWatcherFixture(t, 50*time.Millisecond)

	require.NoError(t, fixture.watcher.Start(context.Background()))
	defer fixture.watcher.Stop()

	sibling := filepath.Join(filepath.Dir(fixture.path), "notes.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("unrelated\n"), 0o644))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), fixture.calls.Load())
}

func TestWatcherKeepsRunningAfterReloadError(t *testing.T) {
	fixture := newWatcherFixture(t, 50*time.Millisecond)
	fixture.err = errors.New("reconcile broken")

	require.NoError(t, fixture.watcher.Start(context.Background()))
	defer fixture.watcher.Stop()

	fixture.touch(t, "https://one.test/a\nhttps://one.test/b\n")
	require.Eventually(t, func() bool {
		return fixture.calls.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)

	fixture.touch(t, "https://one.test/a\nhttps://one.test/c\n")
	require.Eventually(t, func() bool {
		return fixture.calls.Load() >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcherContextCancelStopsLoop(t *testing.T) {
	fixture := newWatcherFixture(t, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, fixture.watcher.Start(ctx))

	cancel()
	time.Sleep(100 * time.Millisecond)

	fixture.touch(t, "https://one.test/a\nhttps://one.test/b\n")
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), fixture.calls.Load())

	fixture.watcher.Stop()
}

func TestWatcherStopWithoutStart(t *testing.T) {
	fixture := newWatcherFixture(t, 50*time.Millisecond)

	fixture.watcher.Stop()
}
