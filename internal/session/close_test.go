package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_IsIdempotent(t *testing.T) {
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), Handlers{})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.EqualValues(t, 1, f.engine(0).closes.Load())
	assert.Equal(t, StateClosed, c.State())
	assert.False(t, c.Ready())
}

func TestClose_BeforeStart(t *testing.T) {
	c := New(Config{}, Handlers{})
	require.NoError(t, c.Close())
	select {
	case <-c.Done():
	default:
		t.Fatalf("Done should be closed after Close")
	}
	require.ErrorIs(t, c.Wait(testCtx(t)), ErrClosed)
	c.Start(testCtx(t))
	assert.Equal(t, StateClosed, c.State())
}

func TestClose_PredictAfterCloseIsNoop(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), rec.handlers())
	require.NoError(t, c.Close())

	c.Predict("1")
	assert.Empty(t, rec.resultList())
	assert.Empty(t, rec.errList())
	assert.Zero(t, f.engine(0).runs.Load())
}

func TestClose_StaleDownloadDoesNotInstallEngine(t *testing.T) {
	rec := &recorder{}
	entered := make(chan struct{})
	src := &fakeSource{art: FileArtifact("/m"), gate: make(chan struct{}), entered: entered}
	f := &fakeFactory{}
	c := Open(testCtx(t), remoteConfig(src, f), rec.handlers())

	<-entered
	require.NoError(t, c.Close())
	close(src.gate)
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("setup did not finish")
	}

	assert.Zero(t, f.created(), "no engine may be built after close")
	assert.False(t, c.Ready())
	assert.Equal(t, StateClosed, c.State())
	assert.Empty(t, rec.errList())
	assert.NotContains(t, rec.sequence(), "ready")
	assert.NotContains(t, rec.sequence(), "download")
}

func TestClose_StaleDownloadFailureIsSilent(t *testing.T) {
	rec := &recorder{}
	entered := make(chan struct{})
	src := &fakeSource{err: errBoom, gate: make(chan struct{}), entered: entered}
	c := Open(testCtx(t), remoteConfig(src, &fakeFactory{}), rec.handlers())

	<-entered
	require.NoError(t, c.Close())
	close(src.gate)
	<-c.Done()
	assert.Empty(t, rec.errList())
}

func TestClose_ConcurrentPredictNeverRunsReleasedHandle(t *testing.T) {
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), Handlers{})
	eng := f.engine(0)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					c.Predict("1")
				}
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())
	close(stop)
	wg.Wait()

	assert.Zero(t, eng.ranAfterClose.Load())
	assert.EqualValues(t, 1, eng.closes.Load())
}

func TestReload_ReplacesHandleReleasingPreviousFirst(t *testing.T) {
	rec := &recorder{}
	pub := NewMemoryPublisher()
	f := &fakeFactory{}
	cfg := remoteConfig(&fakeSource{art: FileArtifact("/m")}, f)
	cfg.Publisher = pub
	c := openAndWait(t, cfg, rec.handlers())

	require.NoError(t, c.Reload(testCtx(t)))
	require.NoError(t, c.Reload(testCtx(t)))

	require.Equal(t, 3, f.created())
	assert.Equal(t, []int{0, 0, 0}, f.liveAtCreate, "previous handle released before each construction")
	assert.EqualValues(t, 1, f.engine(0).closes.Load())
	assert.EqualValues(t, 1, f.engine(1).closes.Load())
	assert.Zero(t, f.engine(2).closes.Load())

	c.Predict("3")
	assert.EqualValues(t, 1, f.engine(2).runs.Load())
	assert.Equal(t, StateReady, c.State())
	assert.Contains(t, pub.Names(), "reload_done")
	assert.EqualValues(t, 3, c.Status().LoadsTotal)
}

func TestReload_ConcurrentReloadsKeepSingleHandle(t *testing.T) {
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), Handlers{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Reload(testCtx(t))
		}()
	}
	wg.Wait()

	live := 0
	for i := 0; i < f.created(); i++ {
		if f.engine(i).closes.Load() == 0 {
			live++
		}
	}
	assert.Equal(t, 1, live)
	for _, n := range f.liveAtCreate {
		assert.Zero(t, n)
	}
}

func TestReload_DownloadFailureKeepsServing(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{art: FileArtifact("/m")}
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(src, f), rec.handlers())

	src.err = errBoom
	err := c.Reload(testCtx(t))
	requireKind(t, err, KindModelDownload)
	require.Len(t, rec.errList(), 1)
	assert.Equal(t, StateReady, c.State())
	assert.True(t, c.Ready())
	assert.Zero(t, f.engine(0).closes.Load())
}

func TestReload_ConstructionFailureFailsSession(t *testing.T) {
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), Handlers{})

	f.mu.Lock()
	f.err = errBoom
	f.mu.Unlock()
	err := c.Reload(testCtx(t))
	requireKind(t, err, KindInterpreterInitialization)
	assert.Equal(t, StateFailed, c.State())
	assert.False(t, c.Ready())
	assert.EqualValues(t, 1, f.engine(0).closes.Load())
}

func TestReload_RequiresReady(t *testing.T) {
	c := openAndWait(t, remoteConfig(&fakeSource{err: errBoom}, &fakeFactory{}), Handlers{})
	require.True(t, IsNotReady(c.Reload(testCtx(t))))
}
