package canvas

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurface(t *testing.T) *MemorySurface {
	t.Helper()
	s := NewMemorySurface(40, 30)
	s.Set(3, 5, color.RGBA{R: 255, A: 255})
	s.Set(10, 20, color.RGBA{G: 128, B: 64, A: 255})
	s.Set(39, 29, color.RGBA{B: 200, A: 255})
	return s
}

func TestEncodeIsDeterministic(t *testing.T) {
	s := testSurface(t)

	a, err := Encode(s)
	require.NoError(t, err)
	b, err := Encode(s)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Contains(t, a, `width="40"`)
	assert.Contains(t, a, `height="30"`)
	assert.Contains(t, a, dataURIPrefix)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := testSurface(t)

	vec, err := Encode(src)
	require.NoError(t, err)

	dst := NewMemorySurface(40, 30)
	err = Decode(context.Background(), vec, dst)
	require.NoError(t, err)

	assert.Equal(t, src.Width(), dst.Width())
	assert.Equal(t, src.Height(), dst.Height())

	srcImg, dstImg := src.Image(), dst.Image()
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			sr, sg, sb, sa := srcImg.At(x, y).RGBA()
			dr, dg, db, da := dstImg.At(x, y).RGBA()
			if sr != dr || sg != dg || sb != db || sa != da {
				t.Fatalf("pixel mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestDecodeClearsPreviousContent(t *testing.T) {
	blank := NewMemorySurface(40, 30)
	vec, err := Encode(blank)
	require.NoError(t, err)

	dst := testSurface(t)
	require.NoError(t, Decode(context.Background(), vec, dst))

	_, _, _, a := dst.Image().At(3, 5).RGBA()
	assert.Zero(t, a, "stale pixel survived decode")
}

func TestDecodeMissingImageReference(t *testing.T) {
	dst := NewMemorySurface(10, 10)
	err := Decode(context.Background(), `<svg width="10" height="10"></svg>`, dst)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Reason, "no embedded image")
}

func TestDecodeCorruptImageData(t *testing.T) {
	dst := NewMemorySurface(10, 10)
	vec := `<svg width="10" height="10"><image href="data:image/png;base64,not-base64!!"/></svg>`
	err := Decode(context.Background(), vec, dst)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
}

func TestDecodeInvalidEnvelope(t *testing.T) {
	dst := NewMemorySurface(10, 10)
	err := Decode(context.Background(), "not xml at all <", dst)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
}

func TestDecodeHonorsCallerTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := testSurface(t)
	vec, err := Encode(src)
	require.NoError(t, err)

	dst := NewMemorySurface(40, 30)
	err = Decode(ctx, vec, dst)
	// The decode may win the race with an already-cancelled context, but a
	// cancelled result must be context.Canceled, never a partial draw error.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestEnvelopeDimensions(t *testing.T) {
	vec, err := Encode(NewMemorySurface(640, 480))
	require.NoError(t, err)

	w, h, err := EnvelopeDimensions(vec)
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestDecodeAcceptsXLinkHref(t *testing.T) {
	src := testSurface(t)
	vec, err := Encode(src)
	require.NoError(t, err)
	require.True(t, strings.Contains(vec, "xlink:href"))

	dst := NewMemorySurface(40, 30)
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()
	require.NoError(t, Decode(ctx, vec, dst))
}
