package fetcher_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/aquasecurity/trivy-java-resolver/pkg/dependency"
	"github.com/aquasecurity/trivy-java-resolver/pkg/fetcher"
	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

type fakeFetcher struct {
	fail    map[string]bool
	block   bool
	running atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
}

func (f *fakeFetcher) FetchArtifact(ctx context.Context, coord types.Coordinate, _ types.TransferListener) (string, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[coord.ArtifactID] {
		return "", errors.New("404 Not Found")
	}
	return "/repo/" + coord.ArtifactID + ".jar", nil
}

func requests(root *progress.Monitor, names ...string) []dependency.FetchRequest {
	var reqs []dependency.FetchRequest
	for _, name := range names {
		reqs = append(reqs, dependency.FetchRequest{
			Coordinate: types.Coordinate{GroupID: "g", ArtifactID: name, Extension: types.JarType, Version: "1.0"},
			Monitor:    root.CreateChild(),
		})
	}
	return reqs
}

func TestScheduler_Fetch(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		want    []string
		wantErr string
	}{
		{
			name:    "happy path keeps input order",
			fetcher: &fakeFetcher{},
			want:    []string{"/repo/a.jar", "/repo/b.jar", "/repo/c.jar"},
		},
		{
			name:    "one failure fails the stage",
			fetcher: &fakeFetcher{fail: map[string]bool{"b": true}},
			wantErr: "404 Not Found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := progress.New()
			s := fetcher.NewScheduler(tt.fetcher, fetcher.Option{})
			got, err := s.Fetch(context.Background(), requests(root, "a", "b", "c"), nil)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1.0, root.Progress())
		})
	}
}

func TestScheduler_Timeout(t *testing.T) {
	clock := clocktesting.NewFakeClock(time.Now())
	s := fetcher.NewScheduler(&fakeFetcher{block: true}, fetcher.Option{
		Timeout: time.Hour,
		Clock:   clock,
	})

	var (
		got []string
		err error
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err = s.Fetch(context.Background(), requests(progress.New(), "a", "b"), nil)
	}()

	require.Eventually(t, clock.HasWaiters, 5*time.Second, 10*time.Millisecond)
	clock.Step(time.Hour)
	wg.Wait()

	assert.ErrorIs(t, err, fetcher.ErrTimeout)
	assert.Nil(t, got)
}

func TestScheduler_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := fetcher.NewScheduler(&fakeFetcher{block: true}, fetcher.Option{})
	got, err := s.Fetch(ctx, requests(progress.New(), "a"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

func TestScheduler_Limit(t *testing.T) {
	f := &fakeFetcher{delay: 20 * time.Millisecond}
	s := fetcher.NewScheduler(f, fetcher.Option{Limit: 2})

	got, err := s.Fetch(context.Background(), requests(progress.New(), "a", "b", "c", "d", "e"), nil)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
}

func TestScheduler_Empty(t *testing.T) {
	s := fetcher.NewScheduler(&fakeFetcher{}, fetcher.Option{})
	got, err := s.Fetch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
