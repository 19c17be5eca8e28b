package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_RemoteDownloadThenPredict(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{art: FileArtifact("/cache/Rice-Stock.tflite"), rec: rec}
	f := &fakeFactory{rec: rec}
	c := openAndWait(t, remoteConfig(src, f), rec.handlers())

	require.Equal(t, StateReady, c.State())
	require.True(t, c.Ready())
	// download notification precedes engine construction, which precedes ready
	assert.Equal(t, []string{"fetch", "download", "create", "ready"}, rec.sequence())
	require.Len(t, f.arts, 1)
	assert.Equal(t, ArtifactFile, f.arts[0].Kind)
	assert.Equal(t, "/cache/Rice-Stock.tflite", f.arts[0].Path)
	assert.Equal(t, RuntimeFromSystemOnly, f.opts[0].Runtime)

	c.Predict("3.0")
	assert.Equal(t, []string{"6.5"}, rec.resultList())
	assert.Empty(t, rec.errList())
	assert.EqualValues(t, 1, f.engine(0).runs.Load())
}

func TestSetup_GPUAvailableRequestsAcceleration(t *testing.T) {
	src := &fakeSource{art: FileArtifact("/m")}
	f := &fakeFactory{}
	rt := &fakeRuntime{}
	cfg := remoteConfig(src, f)
	cfg.Capability = fakeDetector{gpu: true}
	cfg.Runtime = rt
	c := openAndWait(t, cfg, Handlers{})

	require.Equal(t, StateReady, c.State())
	assert.True(t, c.GPUCapable())
	assert.True(t, rt.got.EnableGPUDelegate)
	require.Len(t, f.opts, 1)
	assert.True(t, f.opts[0].Accelerated)
}

func TestSetup_GPUUnavailable(t *testing.T) {
	f := &fakeFactory{}
	rt := &fakeRuntime{}
	cfg := remoteConfig(&fakeSource{art: FileArtifact("/m")}, f)
	cfg.Runtime = rt
	c := openAndWait(t, cfg, Handlers{})

	require.Equal(t, StateReady, c.State())
	assert.False(t, rt.got.EnableGPUDelegate)
	assert.False(t, f.opts[0].Accelerated)
}

func TestSetup_CapabilityQueryFailureIsNotFatalByDefault(t *testing.T) {
	rec := &recorder{}
	pub := NewMemoryPublisher()
	cfg := remoteConfig(&fakeSource{art: FileArtifact("/m")}, &fakeFactory{})
	cfg.Capability = fakeDetector{gpu: true, err: errBoom}
	cfg.Publisher = pub
	c := openAndWait(t, cfg, rec.handlers())

	require.Equal(t, StateReady, c.State())
	assert.False(t, c.GPUCapable(), "failed query must not be read as available")
	assert.Empty(t, rec.errList())
	assert.Contains(t, pub.Names(), "capability_error")
}

func TestSetup_CapabilityQueryFailureStrict(t *testing.T) {
	rec := &recorder{}
	rt := &fakeRuntime{}
	cfg := remoteConfig(&fakeSource{art: FileArtifact("/m")}, &fakeFactory{})
	cfg.Capability = fakeDetector{err: errBoom}
	cfg.StrictCapability = true
	cfg.Runtime = rt
	c := openAndWait(t, cfg, rec.handlers())

	require.Equal(t, StateFailed, c.State())
	errs := rec.errList()
	require.Len(t, errs, 1)
	requireKind(t, errs[0], KindCapabilityCheck)
	assert.Zero(t, rt.calls)
}

func TestSetup_RuntimeInitializationFailure(t *testing.T) {
	rec := &recorder{}
	src := &fakeSource{art: FileArtifact("/m")}
	f := &fakeFactory{}
	cfg := remoteConfig(src, f)
	cfg.Runtime = &fakeRuntime{err: errBoom}
	c := openAndWait(t, cfg, rec.handlers())

	require.Equal(t, StateFailed, c.State())
	errs := rec.errList()
	require.Len(t, errs, 1)
	requireKind(t, errs[0], KindRuntimeInitialization)
	assert.ErrorIs(t, errs[0], errBoom)
	assert.Zero(t, src.calls.Load(), "no acquisition after runtime failure")
	assert.Zero(t, f.created())
}

func TestSetup_DownloadFailure(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{err: errBoom}, f), rec.handlers())

	require.Equal(t, StateFailed, c.State())
	errs := rec.errList()
	require.Len(t, errs, 1)
	requireKind(t, errs[0], KindModelDownload)
	assert.Zero(t, f.created())
	assert.NotContains(t, rec.sequence(), "download")

	c.Predict("3.0")
	assert.Empty(t, rec.resultList())
	assert.Len(t, rec.errList(), 1, "predict after failure is a no-op")
	require.ErrorIs(t, c.Wait(testCtx(t)), errBoom)
}

func TestSetup_DownloadReturnsEmptyArtifact(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{}
	c := openAndWait(t, remoteConfig(&fakeSource{art: Artifact{}}, f), rec.handlers())

	require.Equal(t, StateFailed, c.State())
	requireKind(t, rec.errList()[0], KindModelDownload)
	assert.Zero(t, f.created())
}

func TestSetup_NoSourceConfigured(t *testing.T) {
	rec := &recorder{}
	cfg := remoteConfig(nil, &fakeFactory{})
	cfg.Source = nil
	c := openAndWait(t, cfg, rec.handlers())
	require.Equal(t, StateFailed, c.State())
	requireKind(t, rec.errList()[0], KindModelDownload)
}

func TestSetup_LocalAssetLoadFailureIsReported(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{}
	assets := &fakeAssets{err: errBoom}
	cfg := Config{Policy: PolicyLocal, AssetPath: "/assets/rice_stock.tflite", Assets: assets, Engines: f}
	c := openAndWait(t, cfg, rec.handlers())

	require.Equal(t, StateFailed, c.State())
	errs := rec.errList()
	require.Len(t, errs, 1)
	requireKind(t, errs[0], KindModelLoad)
	assert.Equal(t, "/assets/rice_stock.tflite", assets.path)
	assert.Zero(t, f.created())
}

func TestSetup_LocalBufferReleasedAfterConstruction(t *testing.T) {
	rec := &recorder{}
	released := 0
	art := BufferArtifact([]byte{1, 2, 3}, func() error { released++; return nil })
	f := &fakeFactory{rec: rec}
	cfg := Config{Policy: PolicyLocal, AssetPath: "/a", Assets: &fakeAssets{art: art}, Engines: f}
	c := openAndWait(t, cfg, rec.handlers())

	require.Equal(t, StateReady, c.State())
	assert.Equal(t, 1, released)
	assert.Equal(t, ArtifactBuffer, f.arts[0].Kind)
	assert.Equal(t, []string{"create", "ready"}, rec.sequence(), "no download notification for local assets")
}

func TestSetup_EngineConstructionFailure(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{err: errBoom}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), rec.handlers())

	require.Equal(t, StateFailed, c.State())
	assert.False(t, c.Ready())
	errs := rec.errList()
	require.Len(t, errs, 1)
	requireKind(t, errs[0], KindInterpreterInitialization)
	assert.NotContains(t, rec.sequence(), "ready")
}

func TestSetup_EngineConstructionPanicIsContained(t *testing.T) {
	rec := &recorder{}
	f := &fakeFactory{panicky: true}
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, f), rec.handlers())

	require.Equal(t, StateFailed, c.State())
	assert.False(t, c.Ready())
	requireKind(t, rec.errList()[0], KindInterpreterInitialization)
}

func TestSetup_NilHandlersAreAllowed(t *testing.T) {
	c := openAndWait(t, remoteConfig(&fakeSource{err: errBoom}, &fakeFactory{}), Handlers{})
	require.Equal(t, StateFailed, c.State())
	c.Predict("1")
}

func TestSetup_EventsPublishedInOrder(t *testing.T) {
	pub := NewMemoryPublisher()
	cfg := remoteConfig(&fakeSource{art: FileArtifact("/m")}, &fakeFactory{})
	cfg.Publisher = pub
	c := openAndWait(t, cfg, Handlers{})
	require.NoError(t, c.Close())

	assert.Equal(t, []string{
		"capability_checked",
		"runtime_ready",
		"download_available",
		"engine_ready",
		"close",
	}, pub.Names())
	for _, e := range pub.Events() {
		assert.Equal(t, "Rice-Stock", e.ModelID)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	src := &fakeSource{art: FileArtifact("/m")}
	c := openAndWait(t, remoteConfig(src, &fakeFactory{}), Handlers{})
	c.Start(testCtx(t))
	<-c.Done()
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestStatusReport(t *testing.T) {
	c := openAndWait(t, remoteConfig(&fakeSource{art: FileArtifact("/m")}, &fakeFactory{}), Handlers{})
	c.Predict("1")
	st := c.Status()
	assert.Equal(t, "ready", st.State)
	assert.Equal(t, "Rice-Stock", st.ModelID)
	assert.Equal(t, "remote", st.Policy)
	assert.True(t, st.EngineLoaded)
	assert.EqualValues(t, 1, st.LoadsTotal)
	assert.EqualValues(t, 1, st.PredictionsTotal)
	assert.Equal(t, c.ID(), st.SessionID)
	assert.NotZero(t, st.ServerTimeUnix)
}

func TestDefaultsApplied(t *testing.T) {
	c := New(Config{}, Handlers{})
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, "Rice-Stock", c.ModelID())
	assert.Equal(t, StateUninitialized, c.State())
	assert.Equal(t, PolicyRemote, c.Snapshot().Policy)
	assert.NotEmpty(t, c.ID())
}
