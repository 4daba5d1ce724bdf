package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chrissnell/precipmeter/internal/presentweather"
	"github.com/chrissnell/precipmeter/internal/wmo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "episodes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	episodes := []presentweather.Episode{
		{Start: 0, End: 300, WW: 0, Wawa: wmo.None, Samples: 5},
		{Start: 300, End: 900, WW: 63, Wawa: 63, METAR: "RA", PrecipitationStart: i64(300),
			RainRateSum: 12.5, RainRateCount: 10, LastRainAbsolute: f64(1.25), Samples: 10},
		{Start: 900, End: 1200, WW: 0, Wawa: 0, SpellStart: i64(300), SpellEnd: i64(900),
			IntensitySum: 1200, DurationSum: 600, Interruption: true, Samples: 5},
	}
	for _, e := range episodes {
		require.NoError(t, s.AppendEpisode(ctx, e))
	}

	got, err := s.LoadRecentEpisodes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, episodes, got)

	got, err = s.LoadRecentEpisodes(ctx, 600)
	require.NoError(t, err)
	assert.Equal(t, episodes[1:], got)
}

func TestStoreReplaceDeletePrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AppendEpisode(ctx, presentweather.Episode{Start: 0, End: 60, WW: 0, Wawa: wmo.None}))
	require.NoError(t, s.AppendEpisode(ctx, presentweather.Episode{Start: 0, End: 120, WW: 0, Wawa: wmo.None}))
	require.NoError(t, s.AppendEpisode(ctx, presentweather.Episode{Start: 120, End: 180, WW: 61, Wawa: wmo.None}))
	require.NoError(t, s.AppendEpisode(ctx, presentweather.Episode{Start: 180, End: 4000, WW: 0, Wawa: wmo.None}))

	got, err := s.LoadRecentEpisodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(120), got[0].End)

	require.NoError(t, s.DeleteEpisode(ctx, 120))
	require.NoError(t, s.DeleteEpisode(ctx, 999))
	require.NoError(t, s.PruneEpisodes(ctx, 400))

	got, err = s.LoadRecentEpisodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(180), got[0].Start)
}

func TestStoreFollowsWindow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	w := presentweather.NewWindow("test", presentweather.DefaultParams(), zap.NewNop().Sugar())

	codes := []wmo.Code{0, 0, 0, 0, 0, 61, 0, 0, 0, 63, 63, 63, 63, 63, 63, 0, 0, 0}
	for i, c := range codes {
		ins := w.Insert(presentweather.Sample{Timestamp: int64(i) * 60, WW: c, Wawa: wmo.None})
		require.NoError(t, ins.Apply(ctx, s))
	}

	window := w.Snapshot()
	stored, err := s.LoadRecentEpisodes(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, window[:len(window)-1], stored)

	restored := presentweather.NewWindow("test", presentweather.DefaultParams(), zap.NewNop().Sugar())
	restored.Restore(stored, window[len(window)-1].End)
	assert.Equal(t, len(window)-1, restored.Len())
}
