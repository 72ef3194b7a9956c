package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corewar/op"
	"corewar/vm"
)

// buildCor assembles a minimal, well-formed .cor buffer around body.
func buildCor(name, comment string, body []byte) []byte {
	buf := make([]byte, op.HeaderSize+len(body))
	op.Endian.PutUint32(buf[0:4], op.CorewarMagic)
	copy(buf[4:4+op.ProgNameLength], name)

	bodyLenOff := 4 + op.ProgNameLength + 4
	op.Endian.PutUint32(buf[bodyLenOff:bodyLenOff+4], uint32(len(body)))

	commentOff := bodyLenOff + 4
	copy(buf[commentOff:commentOff+op.CommentLength], comment)

	copy(buf[op.HeaderSize:], body)
	return buf
}

func TestParseRoundTripsNameCommentAndBody(t *testing.T) {
	body := []byte{op.OpLive, 0, 0, 0, 1}
	data := buildCor("imp", "the classic one-liner", body)

	bin, err := Parse("imp.cor", data)

	require.NoError(t, err)
	assert.Equal(t, "imp", bin.Name)
	assert.Equal(t, "the classic one-liner", bin.Comment)
	assert.Equal(t, body, bin.Body)
	assert.Equal(t, len(body), bin.BodyLength)
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildCor("imp", "", []byte{1})
	op.Endian.PutUint32(data[0:4], 0xdeadbeef)

	_, err := Parse("imp.cor", data)

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrBadMagic, le.Kind)
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	_, err := Parse("short.cor", make([]byte, op.HeaderSize-1))

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrTruncated, le.Kind)
}

func TestParseRejectsBodyLargerThanDeclared(t *testing.T) {
	data := buildCor("imp", "", []byte{1, 2, 3})
	data = data[:len(data)-1] // Drop the last declared body byte.

	_, err := Parse("imp.cor", data)

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrTruncated, le.Kind)
}

func TestParseAcceptsBodyWellWithinMaxSize(t *testing.T) {
	// 400 is comfortably between the broken formula's result (170) and the
	// spec's actual ChampMaxSize (682) — a body this size must load.
	body := make([]byte, 400)
	data := buildCor("midsize", "", body)

	bin, err := Parse("midsize.cor", data)

	require.NoError(t, err)
	assert.Equal(t, 400, bin.BodyLength)
}

func TestParseRejectsBodyExceedingMaxSize(t *testing.T) {
	body := make([]byte, op.ChampMaxSize+1)
	data := buildCor("oversized", "", body)

	_, err := Parse("oversized.cor", data)

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrBodyTooLarge, le.Kind)
}

func TestInfoIsReadOnlyMetadata(t *testing.T) {
	data := buildCor("scanner", "metadata-only probe", []byte{op.OpLive, 0, 0, 0, 1})

	bin, err := Info("scanner.cor", data)

	require.NoError(t, err)
	assert.Equal(t, "scanner", bin.Name)
}

func TestLoadMatchAssignsDefaultIDsAndAddresses(t *testing.T) {
	bodies := [][]byte{
		buildCor("one", "", []byte{op.OpLive, 0, 0, 0, 1}),
		buildCor("two", "", []byte{op.OpLive, 0, 0, 0, 2}),
	}
	cfg := vm.DefaultConfig()

	e, err := LoadMatch([]string{"one.cor", "two.cor"}, bodies, cfg, Options{})

	require.NoError(t, err)
	require.Len(t, e.Champions, 2)
	assert.Equal(t, 1, e.Champions[0].ID)
	assert.Equal(t, 2, e.Champions[1].ID)
	assert.Equal(t, 0, e.Processes[0].PC)
	assert.Equal(t, cfg.MemSize/2, e.Processes[1].PC)
}

func TestLoadMatchHonorsExplicitIDsAndAddresses(t *testing.T) {
	bodies := [][]byte{
		buildCor("one", "", []byte{op.OpLive, 0, 0, 0, 1}),
		buildCor("two", "", []byte{op.OpLive, 0, 0, 0, 2}),
	}
	cfg := vm.DefaultConfig()
	opts := Options{
		ChampionIDs:      map[int]int{0: 3, 1: 1},
		InitialAddresses: map[int]int{0: 100, 1: 200},
	}

	e, err := LoadMatch([]string{"one.cor", "two.cor"}, bodies, cfg, opts)

	require.NoError(t, err)
	assert.Equal(t, 3, e.Champions[0].ID)
	assert.Equal(t, 1, e.Champions[1].ID)
	assert.Equal(t, 100, e.Processes[0].PC)
	assert.Equal(t, 200, e.Processes[1].PC)
}

func TestLoadMatchRejectsDuplicateIDs(t *testing.T) {
	bodies := [][]byte{
		buildCor("one", "", []byte{1}),
		buildCor("two", "", []byte{2}),
	}
	cfg := vm.DefaultConfig()
	opts := Options{ChampionIDs: map[int]int{0: 1, 1: 1}}

	_, err := LoadMatch([]string{"one.cor", "two.cor"}, bodies, cfg, opts)

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrDuplicateID, le.Kind)
}

func TestLoadMatchRejectsTooManyChampions(t *testing.T) {
	bodies := make([][]byte, op.MaxPlayers+1)
	for i := range bodies {
		bodies[i] = buildCor("x", "", []byte{1})
	}

	_, err := LoadMatch(nil, bodies, vm.DefaultConfig(), Options{})

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrTooManyChampions, le.Kind)
}

func TestLoadMatchRejectsEmptyChampionList(t *testing.T) {
	_, err := LoadMatch(nil, nil, vm.DefaultConfig(), Options{})

	require.Error(t, err)
	le, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrTooManyChampions, le.Kind)
}

func TestLoadMatchBlitsBodyIntoArenaAtComputedAddress(t *testing.T) {
	body := []byte{op.OpLive, 0, 0, 0, 1}
	bodies := [][]byte{buildCor("one", "", body)}
	cfg := vm.DefaultConfig()

	e, err := LoadMatch([]string{"one.cor"}, bodies, cfg, Options{})

	require.NoError(t, err)
	assert.Equal(t, body, e.Arena.Bytes(0, len(body)))
}
