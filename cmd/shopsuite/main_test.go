package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/scenarios"
	"github.com/testforge/shopsuite/internal/storage"
)

func TestPrintCatalog_GroupsBySuite(t *testing.T) {
	color.NoColor = true
	list, err := scenarios.Select(scenarios.Catalog(), []string{"auth", "cart"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	printCatalog(&buf, list)
	out := buf.String()

	assert.Contains(t, out, "auth (5)")
	assert.Contains(t, out, "TC1 ")
	assert.Contains(t, out, "cart (")
	assert.NotContains(t, out, "checkout")
	assert.Less(t, strings.Index(out, "auth"), strings.Index(out, "cart"))
}

func TestRunFlags_ApplyOnlyChanged(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "3", "--headed"}))

	cfg := &config.Config{
		BaseURL:  "https://shop.test",
		Timeouts: config.DefaultTimeouts(),
		Browser:  config.BrowserConfig{Engine: "chromium", Headless: true},
		Policies: config.PolicyConfig{Fill: "swallow", Check: "swallow", Overlay: "propagate"},
		Runner:   config.RunnerConfig{Workers: 1, Retries: 2},
	}

	var f runFlags
	f.workers, _ = cmd.Flags().GetInt("workers")
	f.headed, _ = cmd.Flags().GetBool("headed")
	f.retries, _ = cmd.Flags().GetInt("retries")

	require.NoError(t, f.apply(cmd, cfg))
	assert.Equal(t, 3, cfg.Runner.Workers)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 2, cfg.Runner.Retries, "unset flag must not override the environment")
	assert.Equal(t, "https://shop.test", cfg.BaseURL)
}

func TestRunFlags_ApplyValidates(t *testing.T) {
	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--base-url", "not a url"}))

	cfg := &config.Config{
		Timeouts: config.DefaultTimeouts(),
		Browser:  config.BrowserConfig{Engine: "chromium"},
		Policies: config.PolicyConfig{Fill: "swallow", Check: "swallow", Overlay: "swallow"},
		Runner:   config.RunnerConfig{Workers: 1},
	}

	err := runFlags{baseURL: "not a url"}.apply(cmd, cfg)
	assert.ErrorContains(t, err, "BASE_URL")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}

func TestPrintCatalog_SingleID(t *testing.T) {
	color.NoColor = true
	list, err := scenarios.Select(scenarios.Catalog(), nil, []string{"TC6"})
	require.NoError(t, err)

	var buf bytes.Buffer
	printCatalog(&buf, list)

	assert.Equal(t, "misc (1)\n  TC6    Contact us form\n", buf.String())
}

type signingLister struct {
	keys []string
	err  error
}

func (s signingLister) List(context.Context, string) ([]string, error) { return s.keys, nil }

func (s signingLister) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.test/" + key + "?ttl=" + expiry.String(), nil
}

func TestPrintArtifacts(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()

	t.Run("local keys", func(t *testing.T) {
		dir := t.TempDir()
		store := storage.NewLocalStore(dir)
		_, err := store.Save(ctx, "screenshots/run-1/TC1.png", []byte("png"))
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, printArtifacts(ctx, &buf, store, "screenshots/run-1", time.Hour))
		assert.Equal(t, "screenshots/run-1/TC1.png\n", buf.String())
	})

	t.Run("signed links", func(t *testing.T) {
		var buf bytes.Buffer
		lister := signingLister{keys: []string{"screenshots/run-1/TC1.png"}}

		require.NoError(t, printArtifacts(ctx, &buf, lister, "screenshots/run-1", time.Hour))
		assert.Equal(t, "screenshots/run-1/TC1.png\n    https://bucket.test/screenshots/run-1/TC1.png?ttl=1h0m0s\n", buf.String())
	})

	t.Run("links disabled", func(t *testing.T) {
		var buf bytes.Buffer
		lister := signingLister{keys: []string{"a.png"}}

		require.NoError(t, printArtifacts(ctx, &buf, lister, "", 0))
		assert.Equal(t, "a.png\n", buf.String())
	})

	t.Run("signing error", func(t *testing.T) {
		lister := signingLister{keys: []string{"a.png"}, err: errors.New("expired credentials")}

		err := printArtifacts(ctx, &bytes.Buffer{}, lister, "", time.Hour)
		assert.ErrorContains(t, err, "expired credentials")
	})

	t.Run("empty run", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printArtifacts(ctx, &buf, storage.NewLocalStore(t.TempDir()), "screenshots/none", time.Hour))
		assert.Contains(t, buf.String(), "No artifacts under screenshots/none")
	})
}
