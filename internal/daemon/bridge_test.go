package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/imecue/internal/model"
)

func TestBridge_EdgeTriggered(t *testing.T) {
	sink := &fakeSink{name: "file"}
	b := NewBridge(nil, sink)

	for _, m := range []model.Mode{
		model.ModeAlphabetic, model.ModeAlphabetic,
		model.ModeSecondary, model.ModeSecondary, model.ModeSecondary,
		model.ModeAlphabetic,
	} {
		require.NoError(t, b.Publish(m))
	}

	assert.Equal(t, []model.Mode{model.ModeAlphabetic, model.ModeSecondary, model.ModeAlphabetic}, sink.published)

	last, ok := b.Last("file")
	assert.True(t, ok)
	assert.Equal(t, model.ModeAlphabetic, last)
}

func TestBridge_FirstPublishFromUnset(t *testing.T) {
	sink := &fakeSink{name: "mqtt"}
	b := NewBridge(nil, sink)

	_, ok := b.Last("mqtt")
	assert.False(t, ok)

	// Alphabetic is also the zero value, it must still be written once
	require.NoError(t, b.Publish(model.ModeAlphabetic))
	assert.Len(t, sink.published, 1)
}

func TestBridge_SinksAreIndependent(t *testing.T) {
	failing := &fakeSink{name: "mqtt", err: errFake}
	file := &fakeSink{name: "file"}
	b := NewBridge(nil, failing, nil, file)
	assert.Equal(t, 2, b.Len())

	var reported []string
	b.SetErrorHandler(func(sink string, err error) {
		reported = append(reported, sink)
		assert.ErrorIs(t, err, errFake)
	})

	err := b.Publish(model.ModeSecondary)
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, []model.Mode{model.ModeSecondary}, file.published)
	assert.Equal(t, []string{"mqtt"}, reported)

	// A failed transition is not retried on the next tick
	assert.NoError(t, b.Publish(model.ModeSecondary))
	assert.Len(t, failing.published, 1)
	assert.Len(t, reported, 1)
}

func TestBridge_CloseOnce(t *testing.T) {
	a := &fakeSink{name: "a"}
	c := &fakeSink{name: "c"}
	b := NewBridge(nil, a, c)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, a.closes)
	assert.Equal(t, 1, c.closes)

	// Publishing after close is a no-op
	require.NoError(t, b.Publish(model.ModeSecondary))
	assert.Empty(t, a.published)
}

func TestBridge_LastUnknownSink(t *testing.T) {
	b := NewBridge(nil)
	_, ok := b.Last("nope")
	assert.False(t, ok)
}
