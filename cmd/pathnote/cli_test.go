package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathnote/internal/config"
	"github.com/aretw0/pathnote/pkg/adapters/memory"
	"github.com/aretw0/pathnote/pkg/codec"
	"github.com/aretw0/pathnote/pkg/core"
	"github.com/aretw0/pathnote/pkg/keys"
)

func TestParseEventTypes(t *testing.T) {
	types, err := parseEventTypes([]string{"create", " Delete "})
	require.NoError(t, err)
	assert.Equal(t, []core.EventType{core.EventCreate, core.EventDelete}, types)

	_, err = parseEventTypes([]string{"rename"})
	assert.ErrorContains(t, err, "rename")
}

func TestFlatten(t *testing.T) {
	got := flatten(struct {
		Path   string `json:"path"`
		Active bool   `json:"watcher_active"`
		Count  int    `json:"records"`
	}{"/srv", true, 3})

	assert.Equal(t, map[string]string{"path": "/srv", "watcher_active": "true", "records": "3"}, got)
	assert.Empty(t, flatten(nil))
}

func TestBuildStatusTree(t *testing.T) {
	d, err := keys.NewDeriver(keys.Params{Secret: "k", IVSeed: "iv", KeyLen: 32})
	require.NoError(t, err)
	c, err := codec.New(codec.AES256CBC, codec.EncodingBase64Hex)
	require.NoError(t, err)
	svc, err := core.NewService(memory.New(), d, c)
	require.NoError(t, err)

	root := buildStatusTree(svc)
	assert.Equal(t, "Service", root.Name)
	require.Len(t, root.Children, 1)

	store := root.Children[0]
	assert.Equal(t, "memory", store.Metadata["type"])
	require.Len(t, store.Children, 1, "memory store is watchable")
	assert.Equal(t, "suspended", store.Children[0].Status)
}

func TestApplyStoreFlags(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Store.Adapter = "bolt"
		cfg.Store.URI = "/srv/notes.db"
		return cfg
	}

	tests := []struct {
		name       string
		store, uri string
		wantStore  string
		wantURI    string
	}{
		{"No Flags", "", "", "bolt", "/srv/notes.db"},
		{"Same Adapter Keeps URI", "bolt", "", "bolt", "/srv/notes.db"},
		{"URI Only", "", "/tmp/other.db", "bolt", "/tmp/other.db"},
		{"Switch Adapter Defaults URI", "fs", "", "fs", config.DefaultStoreURI("fs")},
		{"Switch Adapter With URI", "badger", "/tmp/b", "badger", "/tmp/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := applyStoreFlags(base(), tt.store, tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStore, cfg.Store.Adapter)
			assert.Equal(t, tt.wantURI, cfg.Store.URI)
		})
	}

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := applyStoreFlags(base(), "redis", "")
		assert.ErrorIs(t, err, config.ErrInvalidAdapter)
	})
}

// buildBinary compiles the CLI into dir and returns its path.
func buildBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "pathnote.exe")
	buildCmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build pathnote: %v\n%s", err, string(out))
	}
	return bin
}

type cli struct {
	t   *testing.T
	bin string
	dir string
	env []string
}

func (c cli) run(stdin string, args ...string) (string, string, error) {
	cmd := exec.Command(c.bin, args...)
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(), c.env...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (c cli) mustRun(stdin string, args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run(stdin, args...)
	require.NoError(c.t, err, "pathnote %v\n%s", args, errOut)
	return out
}

func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping CLI build in short mode")
	}

	tempDir := t.TempDir()
	store := filepath.Join(tempDir, "data")
	c := cli{
		t:   t,
		bin: buildBinary(t, tempDir),
		dir: tempDir,
		env: []string{
			"PATHNOTE_ENV=development",
			"PATHNOTE_SECRET_KEY=cli-secret",
			"PATHNOTE_SECRET_IV=cli-iv",
			"PATHNOTE_STORE=fs",
			"PATHNOTE_STORE_URI=" + store,
		},
	}

	t.Run("Write Then Read", func(t *testing.T) {
		c.t = t
		c.mustRun("", "write", "notes/todo", "--content", "Buy milk")
		assert.Equal(t, "Buy milk", c.mustRun("", "read", "notes/todo"))

		var note noteJSON
		require.NoError(t, json.Unmarshal([]byte(c.mustRun("", "read", "/notes/todo/", "--json")), &note))
		assert.Equal(t, "notes/todo", note.Path)
		assert.Equal(t, "Buy milk", note.Content)
		assert.NotEmpty(t, note.LastModified)
	})

	t.Run("Write From Stdin", func(t *testing.T) {
		c.t = t
		c.mustRun("line one\nline two\n", "write", "journal", "--file", "-")
		assert.Equal(t, "line one\nline two\n", c.mustRun("", "read", "journal"))
	})

	t.Run("Keyhash Locates Record", func(t *testing.T) {
		c.t = t
		key := strings.TrimSpace(c.mustRun("", "keyhash", "notes/todo"))
		assert.Len(t, key, 64)
		assert.FileExists(t, filepath.Join(store, key[:2], key+".json"))
	})

	t.Run("Empty Write Clears", func(t *testing.T) {
		c.t = t
		out := c.mustRun("", "write", "notes/todo", "--content", "")
		assert.Contains(t, out, "cleared")
		assert.Empty(t, c.mustRun("", "read", "notes/todo"))
	})

	t.Run("Import", func(t *testing.T) {
		c.t = t
		file := filepath.Join(tempDir, "import.yaml")
		require.NoError(t, os.WriteFile(file, []byte("a: alpha\nb/c: beta\nd: \"\"\n"), 0o600))

		out := c.mustRun("", "import", file)
		assert.Contains(t, out, "Imported 2 notes, cleared 1, failed 0")
		assert.Equal(t, "beta", c.mustRun("", "read", "b/c"))
	})

	t.Run("Reserved Path", func(t *testing.T) {
		c.t = t
		_, _, err := c.run("", "write", "api/load", "--content", "x")
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.ExitCode())
	})

	t.Run("Keyhash Empty Path", func(t *testing.T) {
		c.t = t
		_, _, err := c.run("", "keyhash", " / ")
		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.ExitCode())
	})

	t.Run("Store Flag Keeps Env URI", func(t *testing.T) {
		c.t = t
		out := c.mustRun("", "status", "--store", "fs")
		assert.Contains(t, out, store)
	})

	t.Run("Status", func(t *testing.T) {
		c.t = t
		out := c.mustRun("", "status")
		assert.Contains(t, out, `"store_type": "fs"`)
		assert.NotContains(t, out, "cli-secret")
	})

	t.Run("Production Without Crypto Fails", func(t *testing.T) {
		c.t = t
		prod := c
		prod.env = []string{"PATHNOTE_ENV=production", "PATHNOTE_STORE_URI=" + store}
		// Unset inherited secrets.
		prod.env = append(prod.env, "PATHNOTE_SECRET_KEY=", "PATHNOTE_SECRET_IV=", "SECRET_KEY=", "SECRET_IV=")

		_, errOut, err := prod.run("", "read", "notes/todo")
		assert.Error(t, err)
		assert.Contains(t, errOut, "must be set in production")
	})

	t.Run("Version", func(t *testing.T) {
		c.t = t
		assert.Contains(t, c.mustRun("", "version"), "pathnote version")
	})
}
