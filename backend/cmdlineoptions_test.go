package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFromFlags(t *testing.T) {
	icon := writeFile(t, "icon.png", "not really a png")
	*FlagTitle, *FlagSubtitle, *FlagAction = "Song A", "Artist B", "play"
	*FlagDuration, *FlagPosition, *FlagIconFile = 200000, 5000, icon
	t.Cleanup(func() {
		*FlagTitle, *FlagSubtitle, *FlagAction = "", "", ""
		*FlagDuration, *FlagPosition, *FlagIconFile = 0, 0, ""
	})

	u, err := UpdateFromFlags()
	require.NoError(t, err)
	assert.Equal(t, "Song A", u.Title)
	assert.Equal(t, "Artist B", u.Subtitle)
	assert.Equal(t, "play", u.Action)
	assert.Equal(t, int64(200000), u.Duration)
	assert.Equal(t, int64(5000), u.CurrentPosition)
	assert.Equal(t, "bm90IHJlYWxseSBhIHBuZw==", u.Icon)

	*FlagIconFile = filepath.Join(t.TempDir(), "missing.png")
	_, err = UpdateFromFlags()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
