package transposition

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestClassify(t *testing.T) {
	is := is.New(t)
	is.Equal(Classify(-5, -5, 5), Upper)
	is.Equal(Classify(-6, -5, 5), Upper)
	is.Equal(Classify(5, -5, 5), Lower)
	is.Equal(Classify(0, -5, 5), Exact)
	is.Equal(Exact.String(), "exact")
	is.Equal(Invalid.String(), "invalid")
}

func TestStoreLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTable(12)
	is.Equal(tt.Size(), 4096)

	key := uint64(9409641586937047728)
	tt.Store(key, 23, Upper, 12.5)

	e, ok := tt.Lookup(key)
	is.True(ok)
	is.True(e.Valid())
	is.Equal(e.Depth(), 23)
	is.Equal(e.Bound(), Upper)
	is.Equal(e.Score(), 12.5)

	// same slot, different key: a collision
	e, ok = tt.Lookup(key + 4096)
	is.True(!ok)
	is.Equal(e, Entry{})
	is.Equal(tt.Stats().Collisions, uint64(1))

	// an empty slot is not a collision
	_, ok = tt.Lookup(key + 1)
	is.True(!ok)
	st := tt.Stats()
	is.Equal(st.Lookups, uint64(3))
	is.Equal(st.Hits, uint64(1))
	is.Equal(st.Collisions, uint64(1))
	is.Equal(st.Created, uint64(1))
}

func TestResetClampsAndClears(t *testing.T) {
	is := is.New(t)
	tt := NewTable(2)
	is.Equal(tt.Size(), 1<<MinSizePowerOf2)
	tt.Store(77, 3, Exact, 1)
	tt.ResetSize(MinSizePowerOf2)
	_, ok := tt.Lookup(77)
	is.True(!ok)
	is.Equal(tt.Stats().Created, uint64(0))
}

func TestResetFromMemory(t *testing.T) {
	is := is.New(t)
	tt := &Table{}
	tt.SetMultiThreadedMode()
	tt.Reset(0)
	is.Equal(tt.Size(), 1<<MinSizePowerOf2)
}
