package valve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport emulates a valve drive that stores the last written code.
type fakeTransport struct {
	code      RawCode
	readErr   error
	writeErr  error
	reads     int
	writes    int
	writeHook func(ctx context.Context) error
}

func (f *fakeTransport) ReadRawPosition(ctx context.Context) (RawCode, error) {
	f.reads++
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.code, nil
}

func (f *fakeTransport) WriteRawPosition(ctx context.Context, code RawCode) error {
	f.writes++
	if f.writeHook != nil {
		if err := f.writeHook(ctx); err != nil {
			return err
		}
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.code = code
	return nil
}

func newTestController(t *testing.T, tr Transport) *Controller {
	t.Helper()
	g := NewGraph(sixPortTwoPosition(t))
	c, err := NewController(g, NumericAdapter{Count: g.Positions(), Base: 1}, tr)
	require.NoError(t, err)
	return c
}

func TestControllerStartsUnknown(t *testing.T) {
	c := newTestController(t, &fakeTransport{code: "1"})

	_, ok := c.Current()
	assert.False(t, ok)
}

func TestControllerRoundTrip(t *testing.T) {
	// For every key: switch to the connect set implied by the key, read
	// back, and expect exactly that key's connection set.
	tr := &fakeTransport{code: "1"}
	c := newTestController(t, tr)
	g := c.Graph()

	for key, want := range g.States() {
		err := c.SetPosition(context.Background(), want.Pairs(), nil, true)
		require.NoError(t, err)

		got, err := c.Position(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.String())

		cur, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, Position(key), cur)
	}
}

func TestControllerResolveFailureSkipsTransport(t *testing.T) {
	tr := &fakeTransport{code: "1"}
	c := newTestController(t, tr)

	err := c.SetPosition(context.Background(), []Pair{{P(1), P(3)}}, nil, true)
	assert.ErrorIs(t, err, ErrConnectionImpossible)
	assert.Zero(t, tr.writes, "resolution failures must not touch the transport")

	_, ok := c.Current()
	assert.False(t, ok)
}

func TestControllerWriteFailureIsolation(t *testing.T) {
	tr := &fakeTransport{code: "1"}
	c := newTestController(t, tr)

	_, err := c.Position(context.Background())
	require.NoError(t, err)
	before, ok := c.Current()
	require.True(t, ok)

	tr.writeErr = errors.New("bus glitch")
	err = c.SetPosition(context.Background(), []Pair{{P(2), P(3)}}, nil, true)
	require.ErrorIs(t, err, ErrCommunication)

	after, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, before, after, "a failed write must leave the cache untouched")

	var commErr *CommError
	require.ErrorAs(t, err, &commErr)
	assert.Equal(t, "write raw position", commErr.Op)
	assert.ErrorIs(t, commErr.Err, tr.writeErr)
}

func TestControllerReadFailureIsolation(t *testing.T) {
	tr := &fakeTransport{code: "2"}
	c := newTestController(t, tr)

	_, err := c.Position(context.Background())
	require.NoError(t, err)
	before, _ := c.Current()

	tr.readErr = errors.New("no reply")
	_, err = c.Position(context.Background())
	require.ErrorIs(t, err, ErrCommunication)

	after, _ := c.Current()
	assert.Equal(t, before, after)
}

func TestControllerCancelledWriteNotApplied(t *testing.T) {
	// Cancellation while the write is in flight counts as not acknowledged:
	// the cache keeps its prior value and a retry is a fresh call.
	tr := &fakeTransport{code: "1"}
	tr.writeHook = func(ctx context.Context) error {
		return ctx.Err()
	}
	c := newTestController(t, tr)

	_, err := c.Position(context.Background())
	require.NoError(t, err)
	before, _ := c.Current()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.SetPosition(ctx, []Pair{{P(2), P(3)}}, nil, true)
	require.ErrorIs(t, err, ErrCommunication)
	require.ErrorIs(t, err, context.Canceled)

	after, _ := c.Current()
	assert.Equal(t, before, after)
}

func TestControllerUnknownRawCode(t *testing.T) {
	tr := &fakeTransport{code: "99"}
	c := newTestController(t, tr)

	_, err := c.Position(context.Background())
	assert.ErrorIs(t, err, ErrUnknownRawCode)

	_, ok := c.Current()
	assert.False(t, ok, "an unmappable read must not update the cache")
}

func TestControllerRejectsBrokenAdapter(t *testing.T) {
	g := NewGraph(sixPortTwoPosition(t))

	// Adapter domain smaller than the graph's key domain.
	_, err := NewController(g, NumericAdapter{Count: 1}, &fakeTransport{})
	assert.ErrorIs(t, err, ErrInvalidAdapter)
}

func TestControllerSwitchTo(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestController(t, tr)

	require.NoError(t, c.SwitchTo(context.Background(), 1))
	assert.Equal(t, RawCode("2"), tr.code)

	err := c.SwitchTo(context.Background(), 7)
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}
