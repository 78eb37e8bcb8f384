package playback

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyview/internal/clock"
	"storyview/internal/controller"
	"storyview/internal/story"
)

type harness struct {
	t         *testing.T
	clk       *clock.Manual
	ctl       *controller.Controller
	eng       *Engine
	shows     []int
	completes int
}

func newHarness(t *testing.T, repeat bool, items []story.Item, tweak ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		clk: clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ctl: controller.New(),
	}
	cfg := Config{
		Items:       items,
		Controller:  h.ctl,
		Clock:       h.clk,
		Repeat:      repeat,
		OnComplete:  func() { h.completes++ },
		OnStoryShow: func(_ story.Item, i int) { h.shows = append(h.shows, i) },
		Logger:      func(msg string) { t.Log(msg) },
	}
	for _, f := range tweak {
		f(&cfg)
	}
	eng, err := New(cfg)
	require.NoError(t, err)
	h.eng = eng
	t.Cleanup(eng.Stop)
	return h
}

func pages(n int, d time.Duration) []story.Item {
	out := make([]story.Item, n)
	for i := range out {
		out[i] = story.NewTextItem("page", "", d)
	}
	return out
}

func (h *harness) shownFlags() []bool {
	out := make([]bool, h.eng.Len())
	for i := range out {
		out[i] = h.eng.Shown(i)
	}
	return out
}

func TestNewRejectsEmptyItems(t *testing.T) {
	_, err := New(Config{Controller: controller.New()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, story.ErrNoItems))
}

func TestNewRequiresController(t *testing.T) {
	_, err := New(Config{Items: pages(1, time.Second)})
	assert.Error(t, err)
}

func TestStartPlaysFirstUnshownPage(t *testing.T) {
	items := pages(3, 3*time.Second)
	items[0].Shown = true
	h := newHarness(t, false, items)

	assert.Equal(t, Idle, h.eng.State())
	h.eng.Start()
	h.eng.Start()

	assert.Equal(t, Playing, h.eng.State())
	assert.Equal(t, 1, h.eng.Index())
	assert.Equal(t, []int{1}, h.shows)
	assert.Equal(t, []bool{true, false, false}, h.shownFlags())
	assert.True(t, items[0].Shown, "caller items are copied, not reset")
	assert.Equal(t, 1, h.ctl.Subscribers())
}

func TestStartResetsFullyShownStory(t *testing.T) {
	items := pages(2, time.Second)
	items[0].Shown, items[1].Shown = true, true
	h := newHarness(t, false, items)
	h.eng.Start()
	assert.Equal(t, 0, h.eng.Index())
	assert.Equal(t, []bool{false, false}, h.shownFlags())
}

func TestCommandsBeforeStartAreDropped(t *testing.T) {
	h := newHarness(t, false, pages(2, time.Second))
	h.ctl.Next()
	h.ctl.Pause()
	assert.Equal(t, Idle, h.eng.State())
	assert.Empty(t, h.shows)
}

func TestClockAdvancesPages(t *testing.T) {
	h := newHarness(t, false, pages(2, 3*time.Second))
	h.eng.Start()

	h.clk.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 0.5, h.eng.Progress(), 1e-9)

	h.clk.Advance(1500 * time.Millisecond)
	assert.Equal(t, 1, h.eng.Index())
	assert.InDelta(t, 0, h.eng.Progress(), 1e-9)
	assert.Equal(t, []int{0, 1}, h.shows)

	h.clk.Advance(3 * time.Second)
	assert.Equal(t, Completed, h.eng.State())
	assert.Equal(t, 1, h.eng.Index())
	assert.Equal(t, 1.0, h.eng.Progress())
	assert.Equal(t, 1, h.completes)
	assert.Equal(t, 0, h.clk.Pending(), "a completed story schedules nothing")
}

func TestTwoPageExample(t *testing.T) {
	h := newHarness(t, false, pages(2, 3*time.Second))
	h.eng.Start()
	assert.Equal(t, 0, h.eng.Index())
	assert.Equal(t, Playing, h.eng.State())

	h.ctl.Next()
	assert.Equal(t, 1, h.eng.Index())

	h.ctl.Next()
	assert.Equal(t, 0, h.completes, "the last page fills before completing")
	h.clk.Advance(DefaultFastForward)
	assert.Equal(t, 1, h.completes)
	assert.Equal(t, 1, h.eng.Index())
	assert.Equal(t, Completed, h.eng.State())
	assert.Equal(t, 1.0, h.eng.Progress())

	h.clk.Advance(time.Minute)
	assert.Equal(t, 1, h.completes)
	assert.Equal(t, []int{0, 1}, h.shows)
}

func TestNextOnLastPageFastForwardsFromCurrentProgress(t *testing.T) {
	h := newHarness(t, false, pages(1, 10*time.Second))
	h.eng.Start()
	h.clk.Advance(6 * time.Second)
	require.InDelta(t, 0.6, h.eng.Progress(), 1e-9)

	h.ctl.Next()
	h.clk.Advance(DefaultFastForward / 2)
	assert.InDelta(t, 0.8, h.eng.Progress(), 1e-9)

	h.ctl.Next()
	h.ctl.Next()
	h.clk.Advance(DefaultFastForward)
	assert.Equal(t, 1, h.completes, "repeated next on the last page completes once")
	assert.Equal(t, 1.0, h.eng.Progress())

	h.ctl.Next()
	h.ctl.Play()
	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.completes)
	assert.Equal(t, Completed, h.eng.State())
}

func TestPreviousWalksBackToFirstPage(t *testing.T) {
	h := newHarness(t, false, pages(4, 5*time.Second))
	h.eng.Start()
	h.ctl.Next()
	h.ctl.Next()
	h.ctl.Next()
	require.Equal(t, 3, h.eng.Index())

	for _, want := range []int{2, 1, 0, 0, 0} {
		h.clk.Advance(time.Second)
		h.ctl.Previous()
		assert.Equal(t, want, h.eng.Index())
		assert.Equal(t, Playing, h.eng.State())
		assert.InDelta(t, 0, h.eng.Progress(), 1e-9, "clock restarts from zero")
		for i := want; i < 4; i++ {
			assert.False(t, h.eng.Shown(i), "page %d", i)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 2, 1, 0, 0, 0}, h.shows)
}

func TestPreviousFromCompletedStory(t *testing.T) {
	h := newHarness(t, false, pages(3, time.Second))
	h.eng.Start()
	h.clk.Advance(3 * time.Second)
	require.Equal(t, Completed, h.eng.State())

	h.ctl.Previous()
	assert.Equal(t, 1, h.eng.Index())
	assert.Equal(t, Playing, h.eng.State())
	assert.Equal(t, []bool{true, false, false}, h.shownFlags())

	h.clk.Advance(2 * time.Second)
	assert.Equal(t, 2, h.completes)
}

func TestPreviousOnSinglePageCompletedStory(t *testing.T) {
	h := newHarness(t, false, pages(1, time.Second))
	h.eng.Start()
	h.clk.Advance(time.Second)
	require.Equal(t, Completed, h.eng.State())

	h.ctl.Previous()
	assert.Equal(t, 0, h.eng.Index())
	assert.Equal(t, Playing, h.eng.State())
	assert.False(t, h.eng.Shown(0))
}

func TestPauseHoldsThenPauses(t *testing.T) {
	h := newHarness(t, false, pages(2, 3*time.Second))
	h.eng.Start()
	h.clk.Advance(time.Second)

	h.ctl.Pause()
	assert.Equal(t, Holding, h.eng.State())
	assert.True(t, h.eng.Holding())

	h.clk.Advance(DefaultHoldWindow - time.Millisecond)
	assert.True(t, h.eng.Holding())

	h.clk.Advance(time.Millisecond)
	assert.False(t, h.eng.Holding())
	assert.Equal(t, Paused, h.eng.State())

	h.clk.Advance(time.Minute)
	assert.Equal(t, 0, h.eng.Index(), "a paused clock does not advance")
	assert.InDelta(t, 1.0/3, h.eng.Progress(), 1e-9)

	h.ctl.Play()
	assert.Equal(t, Playing, h.eng.State())
	h.clk.Advance(2*time.Second - time.Millisecond)
	assert.Equal(t, 0, h.eng.Index())
	h.clk.Advance(time.Millisecond)
	assert.Equal(t, 1, h.eng.Index())
}

func TestPlayCancelsHoldWindow(t *testing.T) {
	h := newHarness(t, false, pages(2, 3*time.Second))
	h.eng.Start()
	h.ctl.Pause()
	h.ctl.Play()
	assert.False(t, h.eng.Holding())
	assert.Equal(t, Playing, h.eng.State())

	h.ctl.Play()
	h.ctl.Play()
	h.clk.Advance(3 * time.Second)
	assert.Equal(t, 1, h.eng.Index())
	assert.Equal(t, []int{0, 1}, h.shows)
}

func TestRepeatedPauseRearmsHold(t *testing.T) {
	h := newHarness(t, false, pages(1, 3*time.Second))
	h.eng.Start()
	h.ctl.Pause()
	h.clk.Advance(DefaultHoldWindow)
	require.Equal(t, Paused, h.eng.State())

	h.ctl.Pause()
	assert.Equal(t, Holding, h.eng.State())
	assert.True(t, h.eng.Holding())
}

func TestPauseIgnoredWhenCompleted(t *testing.T) {
	h := newHarness(t, false, pages(1, time.Second))
	h.eng.Start()
	h.clk.Advance(time.Second)
	h.ctl.Pause()
	assert.Equal(t, Completed, h.eng.State())
	assert.False(t, h.eng.Holding())
}

func TestRepeatRestartsFromFirstPage(t *testing.T) {
	h := newHarness(t, true, pages(3, time.Second))
	h.eng.Start()

	h.clk.Advance(3 * time.Second)
	assert.Equal(t, 0, h.eng.Index())
	assert.Equal(t, []bool{false, false, false}, h.shownFlags())
	assert.Equal(t, 1, h.completes)
	assert.Equal(t, Playing, h.eng.State())
	assert.Equal(t, []int{0, 1, 2, 0}, h.shows)

	h.clk.Advance(3 * time.Second)
	assert.Equal(t, 2, h.completes)
}

func TestStopReleasesEverything(t *testing.T) {
	h := newHarness(t, false, pages(2, time.Second))
	h.eng.Start()
	h.eng.Stop()

	assert.Equal(t, 0, h.ctl.Subscribers())
	assert.Equal(t, 0, h.clk.Pending())

	h.ctl.Next()
	h.clk.Advance(time.Minute)
	assert.Equal(t, []int{0}, h.shows)
	assert.Equal(t, 0, h.completes)

	h.eng.Start()
	assert.Equal(t, Idle, h.eng.State(), "a stopped engine cannot be restarted")
}

func TestReportLoadFailureKeepsPlaying(t *testing.T) {
	var failed []int
	h := newHarness(t, false, pages(2, time.Second), func(c *Config) {
		c.OnContentError = func(_ story.Item, i int, err error) {
			failed = append(failed, i)
		}
	})
	h.eng.Start()
	h.eng.ReportLoad(0, errors.New("decode failed"))
	h.eng.ReportLoad(0, nil)
	h.eng.ReportLoad(7, errors.New("out of range"))

	assert.Equal(t, []int{0}, failed)
	assert.Equal(t, Playing, h.eng.State())
	h.clk.Advance(time.Second)
	assert.Equal(t, 1, h.eng.Index())
}

func TestFrameTicksPublishProgress(t *testing.T) {
	var snaps []Snapshot
	h := newHarness(t, false, pages(1, time.Second), func(c *Config) {
		c.FrameInterval = 100 * time.Millisecond
		c.OnProgress = func(s Snapshot) { snaps = append(snaps, s) }
	})
	h.eng.Start()
	h.clk.Advance(300 * time.Millisecond)

	require.Len(t, snaps, 4)
	for i, want := range []float64{0, 0.1, 0.2, 0.3} {
		assert.InDelta(t, want, snaps[i].Progress, 1e-9)
		assert.Equal(t, Playing, snaps[i].State)
	}

	h.ctl.Pause()
	n := len(snaps)
	h.clk.Advance(DefaultHoldWindow + 200*time.Millisecond)
	assert.Equal(t, n+1, len(snaps), "no frames while paused, only the hold expiry")
	assert.Equal(t, Paused, snaps[len(snaps)-1].State)
}

func TestCallbacksAreNotReentrant(t *testing.T) {
	var order []string
	var h *harness
	h = newHarness(t, false, pages(3, time.Second), func(c *Config) {
		c.OnStoryShow = func(_ story.Item, i int) {
			order = append(order, "show")
			if i == 1 {
				h.ctl.Pause()
				order = append(order, "emitted")
			}
		}
	})
	h.eng.Start()
	h.clk.Advance(time.Second)

	assert.Equal(t, []string{"show", "show", "emitted"}, order)
	assert.Equal(t, Holding, h.eng.State())
	assert.Equal(t, 1, h.eng.Index())
}

func TestSnapshotAndPreviousTarget(t *testing.T) {
	h := newHarness(t, false, pages(3, 2*time.Second))
	h.eng.Start()
	_, idx, earlier := h.eng.PreviousTarget()
	assert.Equal(t, 0, idx)
	assert.False(t, earlier)

	h.ctl.Next()
	h.ctl.Next()
	h.clk.Advance(time.Second)

	snap := h.eng.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.InDelta(t, 0.5, snap.Progress, 1e-9)
	assert.Equal(t, []story.Entry{
		{Duration: 2 * time.Second, Shown: true},
		{Duration: 2 * time.Second, Shown: true},
		{Duration: 2 * time.Second, Shown: false},
	}, snap.Entries)

	_, idx, earlier = h.eng.PreviousTarget()
	assert.Equal(t, 1, idx)
	assert.True(t, earlier)

	item, cur := h.eng.CurrentItem()
	assert.Equal(t, 2, cur)
	assert.Equal(t, 2*time.Second, item.Duration)
}

func TestRealClockRunsToCompletion(t *testing.T) {
	ctl := controller.New()
	done := make(chan struct{})
	var mu sync.Mutex
	var shows []int
	eng, err := New(Config{
		Items:      pages(3, 5*time.Millisecond),
		Controller: ctl,
		OnStoryShow: func(_ story.Item, i int) {
			mu.Lock()
			shows = append(shows, i)
			mu.Unlock()
		},
		OnComplete: func() { close(done) },
		Logger:     func(string) {},
	})
	require.NoError(t, err)
	eng.Start()
	defer eng.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("story did not complete")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, shows)
	assert.Equal(t, Completed, eng.State())
}
