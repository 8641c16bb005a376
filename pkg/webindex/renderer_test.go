package webindex

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/CyrilBrulebois/apt-webindex/pkg/apt"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	return logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))
}

func buildCatalog(t *testing.T, ctx context.Context) *apt.Catalog {
	amd64 := apt.Source{Suite: "stable", Component: "main", Architecture: "amd64"}
	arm64 := apt.Source{Suite: "stable", Component: "main", Architecture: "arm64"}

	builder := apt.NewCatalogBuilder()
	builder.Add(ctx, amd64, apt.Record{
		Package:      "foo",
		Version:      "1.2",
		Architecture: "amd64",
		Filename:     "pool/main/f/foo/foo_1.2_amd64.deb",
	})
	builder.Add(ctx, amd64, apt.Record{
		Package:      "foo",
		Version:      "1.0",
		Architecture: "amd64",
		Filename:     "pool/main/f/foo/foo_1.0_amd64.deb",
	})
	builder.Add(ctx, arm64, apt.Record{
		Package:      "foo",
		Version:      "1.2",
		Architecture: "arm64",
		Filename:     "pool/main/f/foo/foo_1.2_arm64.deb",
	})
	return builder.Build(ctx)
}

func TestRendererRender(t *testing.T) {
	ctx := testContext(t)
	fs := afero.NewMemMapFs()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	built := now.Add(-3 * time.Hour)
	require.NoError(t, afero.WriteFile(fs, "repo/pool/main/f/foo/foo_1.2_amd64.deb", []byte("deb"), 0644))
	require.NoError(t, fs.Chtimes("repo/pool/main/f/foo/foo_1.2_amd64.deb", built, built))

	renderer, err := NewRenderer(fs, "repo", "")
	require.NoError(t, err)
	renderer.now = func() time.Time { return now }

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(ctx, &buf, buildCatalog(t, ctx)))
	out := buf.String()

	assert.Contains(t, out, "<title>"+DefaultTitle+"</title>")
	assert.Contains(t, out, "Distribution: stable")
	assert.Contains(t, out, `<a href="pool/main/f/foo">foo</a>`)
	assert.Contains(t, out, `<a href="pool/main/f/foo/foo_1.2_amd64.deb">amd64</a>`)
	assert.Contains(t, out, `<a href="pool/main/f/foo/foo_1.2_arm64.deb">arm64</a>`)
	// the amd64 deb was built three hours before rendering; the
	// template escapes '+' inside the title attribute
	assert.Contains(t, out, "hot3")
	assert.Contains(t, out, "3&#43; hours ago")
	assert.Contains(t, out, "2024-05-01 09:00:00Z")
	// the older version shows up in the history column
	assert.Contains(t, out, `<td class="versions">1.0</td>`)
}

func TestRendererRenderMissingArtifact(t *testing.T) {
	ctx := testContext(t)

	renderer, err := NewRenderer(afero.NewMemMapFs(), "repo", "my repo")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(ctx, &buf, buildCatalog(t, ctx)))
	out := buf.String()

	assert.Contains(t, out, "<h1>my repo</h1>")
	// no timestamp means no freshness colouring on the version cell
	assert.Contains(t, out, `<td class="centered">1.2</td>`)
	assert.NotContains(t, out, "title=")
}

func TestRendererRenderEmptyCatalog(t *testing.T) {
	ctx := testContext(t)

	renderer, err := NewRenderer(afero.NewMemMapFs(), "repo", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(ctx, &buf, apt.NewCatalogBuilder().Build(ctx)))

	assert.Contains(t, buf.String(), "<h1>"+DefaultTitle+"</h1>")
	assert.NotContains(t, buf.String(), "Distribution:")
}

func TestAgeInfo(t *testing.T) {
	var cases = []struct {
		diff  time.Duration
		desc  string
		class string
	}{
		{90 * day, "3+ months ago", "hot1"},
		{5 * day, "5+ days ago", "hot2"},
		{7 * time.Hour, "7+ hours ago", "hot3"},
		{30 * time.Minute, "30+ minutes ago", "hot4"},
		{45 * time.Second, "45 seconds ago", "hot5"},
	}

	for _, tt := range cases {
		t.Run(tt.desc, func(t *testing.T) {
			desc, class := ageInfo(tt.diff)
			assert.EqualValues(t, tt.desc, desc)
			assert.EqualValues(t, tt.class, class)
		})
	}
}
