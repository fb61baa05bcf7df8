package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRandomTextUsesCharset(t *testing.T) {
	for _, length := range []int{1, 4, 6, 12} {
		text := RandomText(length)
		require.Len(t, text, length)
		for _, r := range text {
			require.True(t, strings.ContainsRune(Charset, r), "unexpected %q", r)
		}
	}
	require.Len(t, RandomText(0), DefaultLength)
}

func TestRandomTextVaries(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 20; i++ {
		seen[RandomText(DefaultLength)] = struct{}{}
	}
	require.Greater(t, len(seen), 18)
}

func TestRenderProducesPNGDataURL(t *testing.T) {
	img := Render("Ab3xYz")
	require.Equal(t, Width, img.Bounds().Dx())
	require.Equal(t, Height, img.Bounds().Dy())

	url, err := DataURL(img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRenderDrawsColoredGlyphs(t *testing.T) {
	img := Render("WWWWWW")
	colored := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := img.RGBAAt(x, y)
			// Noise is grey over the slate background; glyph colours have a strong blue channel.
			if int(c.B)-int(c.G) > 25 {
				colored++
			}
		}
	}
	require.Greater(t, colored, 50)
}

func TestServiceVerifyIsCaseInsensitiveAndSingleUse(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute, 6)
	ctx := context.Background()

	challenge, err := svc.New(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, challenge.ID)
	require.True(t, strings.HasPrefix(challenge.Image, "data:image/png;base64,"))

	answer, ok, err := store.Take(ctx, challenge.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Save(ctx, challenge.ID, answer, time.Minute))

	ok, err = svc.Verify(ctx, challenge.ID, " "+strings.ToUpper(answer)+" ")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Verify(ctx, challenge.ID, answer)
	require.NoError(t, err)
	require.False(t, ok, "answers are single use")
}

func TestServiceVerifyRejectsWrongAnswerAndConsumesIt(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute, 6)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "c-1", "abc234", time.Minute))

	ok, err := svc.Verify(ctx, "c-1", "zzz")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.Verify(ctx, "c-1", "abc234")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.Verify(ctx, "", "abc234")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestServiceVerifyEmptyAnswerConsumesChallenge(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, time.Minute, 6)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "c-1", "abc234", time.Minute))

	ok, err := svc.Verify(ctx, "c-1", "  ")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Take(ctx, "c-1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", "abc", time.Minute))
	now = now.Add(2 * time.Minute)

	_, ok, err := store.Take(ctx, "old")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, "new", "xyz", time.Minute))
	answer, ok, err := store.Take(ctx, "new")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "xyz", answer)
}
