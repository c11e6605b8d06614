package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukalov/lyricsbot/internal/corpus"
	"github.com/sukalov/lyricsbot/internal/history"
	"github.com/sukalov/lyricsbot/internal/publisher"
	"github.com/sukalov/lyricsbot/internal/selector"
)

type fakeSource struct {
	corpus *corpus.Corpus
	errs   []error
	calls  int
}

func (f *fakeSource) Load(ctx context.Context) (*corpus.Corpus, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.corpus, nil
}

type memoryStore struct {
	saved   []string
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryStore) Load(ctx context.Context) (*history.History, error) {
	if err := m.loadErr; err != nil {
		m.loadErr = nil
		return nil, err
	}
	return history.New(m.saved...), nil
}

func (m *memoryStore) Save(ctx context.Context, h *history.History) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.saved = h.Fingerprints()
	return nil
}

type fakePublisher struct {
	posts []string
	errs  []error
	panic bool
}

func (f *fakePublisher) Publish(ctx context.Context, text string) error {
	if f.panic {
		f.panic = false
		panic("network stack exploded")
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.posts = append(f.posts, text)
	return nil
}

func testCorpus() *corpus.Corpus {
	return corpus.New([]corpus.Song{
		{Title: "A", Lyrics: corpus.Lyrics{"x", "y"}},
		{Title: "B", Lyrics: corpus.Lyrics{"z"}},
	})
}

func newTestScheduler(source corpus.Source, store history.Store, pub publisher.Publisher, opts Options) *Scheduler {
	sel := selector.New(store, 100, rand.New(rand.NewPCG(1, 2)))
	return New(source, store, sel, pub, opts)
}

var errNetwork = errors.New("connection reset by peer")

func TestRunCycle_PublishesAndRecords(t *testing.T) {
	store := &memoryStore{saved: []string{"x"}}
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{})

	require.NoError(t, s.RunCycle(context.Background()))

	require.Len(t, pub.posts, 1)
	assert.Contains(t, []string{"y", "z"}, pub.posts[0])
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.saved, 2)
	assert.Contains(t, store.saved, pub.posts[0])
	assert.Equal(t, 2, s.History().Len())
}

func TestRunCycle_PostsEveryLineBeforeRepeating(t *testing.T) {
	store := &memoryStore{}
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{})

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RunCycle(context.Background()))
	}

	assert.ElementsMatch(t, []string{"x", "y", "z"}, pub.posts)
	assert.Equal(t, []string{"x", "y", "z"}, store.saved)
}

func TestRunCycle_Attribution(t *testing.T) {
	c := corpus.New([]corpus.Song{{Title: "Chica de oro", Lyrics: corpus.Lyrics{"oh chica"}}})
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: c}, &memoryStore{}, pub, Options{Attribution: true})

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, []string{"oh chica [de 'Chica de oro']"}, pub.posts)
}

func TestRunCycle_PublishFailureLeavesHistoryUnchanged(t *testing.T) {
	store := &memoryStore{saved: []string{"x"}}
	pub := &fakePublisher{errs: []error{errNetwork}}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{})

	err := s.RunCycle(context.Background())
	require.ErrorIs(t, err, errNetwork)

	assert.Equal(t, []string{"x"}, s.History().Fingerprints())
	assert.Zero(t, store.saves)
	assert.Empty(t, pub.posts)
}

func TestRunCycle_MarkPolicyRecordsFailedLine(t *testing.T) {
	store := &memoryStore{saved: []string{"x"}}
	pub := &fakePublisher{errs: []error{errNetwork}}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{MarkOnPublishFailure: true})

	require.ErrorIs(t, s.RunCycle(context.Background()), errNetwork)
	assert.Equal(t, 2, s.History().Len())
	assert.Equal(t, 1, store.saves)
}

func TestRunCycle_EmptyCorpusSkips(t *testing.T) {
	store := &memoryStore{}
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: corpus.New(nil)}, store, pub, Options{})

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Empty(t, pub.posts)
	assert.Zero(t, store.saves)
}

func TestRunCycle_CorpusLoadFailureIsRetried(t *testing.T) {
	source := &fakeSource{corpus: testCorpus(), errs: []error{corpus.ErrLoad}}
	pub := &fakePublisher{}
	s := newTestScheduler(source, &memoryStore{}, pub, Options{})

	require.ErrorIs(t, s.RunCycle(context.Background()), corpus.ErrLoad)
	assert.Empty(t, pub.posts)

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Len(t, pub.posts, 1)
	assert.Equal(t, 2, source.calls)

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, 2, source.calls, "corpus is loaded once")
}

func TestRunCycle_HistoryLoadFailureIsRetried(t *testing.T) {
	store := &memoryStore{saved: []string{"x", "y"}, loadErr: history.ErrLoad}
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{})

	require.ErrorIs(t, s.RunCycle(context.Background()), history.ErrLoad)
	assert.Empty(t, pub.posts)
	assert.Zero(t, store.saves)
	assert.Equal(t, []string{"x", "y"}, store.saved)
	assert.Nil(t, s.History())

	require.NoError(t, s.RunCycle(context.Background()))
	assert.Equal(t, []string{"z"}, pub.posts)
	assert.Equal(t, []string{"x", "y", "z"}, store.saved)
}

func TestRunCycle_PersistFailureKeepsMemoryState(t *testing.T) {
	store := &memoryStore{saveErr: history.ErrPersist}
	pub := &fakePublisher{}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, Options{})

	require.ErrorIs(t, s.RunCycle(context.Background()), history.ErrPersist)
	require.Len(t, pub.posts, 1)
	assert.Equal(t, 1, s.History().Len())
}

// recordingSleeper stops the loop after limit sleeps.
type recordingSleeper struct {
	waits  []time.Duration
	states []State
	limit  int
	cancel context.CancelFunc
	s      *Scheduler
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	r.states = append(r.states, r.s.State())
	if len(r.waits) >= r.limit {
		r.cancel()
		return ctx.Err()
	}
	return nil
}

func runFor(t *testing.T, s *Scheduler, sleeps int) *recordingSleeper {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recordingSleeper{limit: sleeps, cancel: cancel, s: s}
	s.WithSleeper(rec.sleep)

	err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	return rec
}

func TestRun_BacksOffAfterFailureAndRecovers(t *testing.T) {
	store := &memoryStore{}
	pub := &fakePublisher{errs: []error{errNetwork}}
	opts := Options{PostInterval: 3 * time.Hour, RetryInterval: 5 * time.Minute}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, store, pub, opts)

	rec := runFor(t, s, 3)

	assert.Equal(t, []time.Duration{5 * time.Minute, 3 * time.Hour, 3 * time.Hour}, rec.waits)
	assert.Equal(t, []State{StateBackoff, StateCycle, StateCycle}, rec.states)
	assert.Len(t, pub.posts, 2)
	assert.Equal(t, 2, s.History().Len())
}

func TestRun_RecoversFromPanic(t *testing.T) {
	pub := &fakePublisher{panic: true}
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, &memoryStore{}, pub, Options{})

	rec := runFor(t, s, 2)

	assert.Equal(t, []time.Duration{DefaultRetryInterval, DefaultPostInterval}, rec.waits)
	assert.Len(t, pub.posts, 1)
	assert.Equal(t, 1, s.History().Len())
}

func TestRun_StopsWhenCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestScheduler(&fakeSource{corpus: testCorpus()}, &memoryStore{}, &fakePublisher{}, Options{PostInterval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "cycle", StateCycle.String())
	assert.Equal(t, "backoff", StateBackoff.String())
}
