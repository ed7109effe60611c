package urllist

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"traffic-publisher/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticDeriver struct {
	calls int
	fail  string
}

func (d *staticDeriver) RawURL(_ context.Context, p string) (string, error) {
	d.calls++
	if p == d.fail {
		return "", errors.New("owner lookup failed")
	}
	return "https://raw.example.com/octo/reports/main/" + p, nil
}

func newTestGenerator(t *testing.T, d URLDeriver) *Generator {
	g := NewGenerator(d, t.TempDir(), logger.NewLogger(io.Discard, "test", "INFO"))
	g.Now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }
	return g
}

func TestGenerateURLList(t *testing.T) {
	g := newTestGenerator(t, &staticDeriver{})

	out, err := g.GenerateURLList(context.Background(), []string{"traffic_data/b.json", "traffic_data/a.json"})
	require.NoError(t, err)
	assert.Equal(t, "urls_20240305_140709.txt", filepath.Base(out))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"https://raw.example.com/octo/reports/main/traffic_data/b.json\n"+
			"https://raw.example.com/octo/reports/main/traffic_data/a.json\n",
		string(content))
}

func TestGenerateURLListEmpty(t *testing.T) {
	g := newTestGenerator(t, &staticDeriver{})

	out, err := g.GenerateURLList(context.Background(), nil)
	require.NoError(t, err)
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestGenerateURLListNeverOverwrites(t *testing.T) {
	g := newTestGenerator(t, &staticDeriver{})

	first, err := g.GenerateURLList(context.Background(), []string{"a"})
	require.NoError(t, err)
	_, err = g.GenerateURLList(context.Background(), []string{"b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "https://raw.example.com/octo/reports/main/a\n", string(content))
}

func TestGenerateURLListDeriveFailure(t *testing.T) {
	d := &staticDeriver{fail: "b"}
	g := newTestGenerator(t, d)

	_, err := g.GenerateURLList(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Equal(t, 2, d.calls)

	entries, _ := os.ReadDir(g.Dir)
	assert.Empty(t, entries)
}
