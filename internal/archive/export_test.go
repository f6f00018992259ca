package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/botdeck/internal/core"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	e := NewExporter(fs, nil)
	e.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	return e
}

func TestExporter_WriteAndLoad(t *testing.T) {
	e := newTestExporter(t)
	ctx := context.Background()
	bars := []core.Bar{
		{Time: 900, Open: 1, High: 2, Low: 1, Close: 2},
		{Time: 1800, Open: 2, High: 3, Low: 2, Close: 3},
	}

	name, err := e.Write(ctx, 7, core.Timeframe15m, bars)
	require.NoError(t, err)
	assert.Equal(t, "bars/7/15m/20240301T123000Z.json", name)

	paths, err := e.List(ctx, 7, core.Timeframe15m)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, paths)

	exp, err := e.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(7), exp.BotID)
	assert.Equal(t, core.Timeframe15m, exp.Timeframe)
	assert.Equal(t, bars, exp.Bars)
}

func TestExporter_EmptyHistory(t *testing.T) {
	e := newTestExporter(t)

	_, err := e.Write(context.Background(), 7, core.Timeframe1m, nil)

	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestExporter_WriteKeepsExistingExport(t *testing.T) {
	e := newTestExporter(t)
	ctx := context.Background()
	first := []core.Bar{{Time: 60, Close: 1}}

	name, err := e.Write(ctx, 7, core.Timeframe1m, first)
	require.NoError(t, err)

	_, err = e.Write(ctx, 7, core.Timeframe1m, []core.Bar{{Time: 60, Close: 9}})
	assert.True(t, errors.Is(err, core.ErrInvalidRequest))

	exp, err := e.Load(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, first, exp.Bars)
}

func TestExporter_LoadMissing(t *testing.T) {
	e := newTestExporter(t)

	_, err := e.Load(context.Background(), "bars/7/1m/none.json")

	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestExporter_ListOtherBot(t *testing.T) {
	e := newTestExporter(t)
	ctx := context.Background()
	_, err := e.Write(ctx, 7, core.Timeframe1m, []core.Bar{{Time: 60, Close: 1}})
	require.NoError(t, err)

	paths, err := e.List(ctx, 8, core.Timeframe1m)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
