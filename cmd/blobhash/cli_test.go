package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/blobhash/blobstore"
)

func TestBuildGetStatsVerify(t *testing.T) {
	in := writePairs(t, "# key,value", "1,10", "2,20", "3, 30")
	out := filepath.Join(t.TempDir(), "table.blob")

	stdout, err := runCLI(t, "build", "--in", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 entries")

	stdout, err = runCLI(t, "get", out, "1", "3")
	require.NoError(t, err)
	assert.Equal(t, "1: 10\n3: 30\n", stdout)

	stdout, err = runCLI(t, "get", out, "2", "4")
	assert.ErrorIs(t, err, errKeysMissing)
	assert.Contains(t, stdout, "4: not found")

	stdout, err = runCLI(t, "stats", "--json", out)
	require.NoError(t, err)
	var s statsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, "map", s.Kind)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, "xxh64", s.Hash)
	assert.True(t, s.Mapped)

	stdout, err = runCLI(t, "verify", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok (3 entries)")
}

func TestBuildMapRejectsRepeatedKey(t *testing.T) {
	in := writePairs(t, "1,10", "1,11")
	_, err := runCLI(t, "build", "--in", in, "--out", filepath.Join(t.TempDir(), "t.blob"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestBuildMultiMap(t *testing.T) {
	in := writePairs(t, "7,1", "7,2", "8,3", "7,4")
	out := filepath.Join(t.TempDir(), "multi.blob")
	cfg := writeConfigFile(t, `{"compression": "lz4", "hash": "murmur3"}`)

	_, err := runCLI(t, "build", "--multi", "--config", cfg, "--in", in, "--out", out)
	require.NoError(t, err)

	stdout, err := runCLI(t, "get", "--json", out, "7", "8")
	require.NoError(t, err)
	var got map[string][]uint64
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, map[string][]uint64{"7": {4, 2, 1}, "8": {3}}, got)

	stdout, err = runCLI(t, "stats", "--json", out)
	require.NoError(t, err)
	var s statsOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, "multimap", s.Kind)
	assert.Equal(t, "murmur3", s.Hash)
	assert.Equal(t, 2, s.DistinctKeys)
}

func TestBuildBadInput(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"NotANumber", []string{"1,x"}},
		{"Negative", []string{"-1,2"}},
		{"ThreeFields", []string{"1,2,3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := writePairs(t, tt.lines...)
			_, err := runCLI(t, "build", "--in", in, "--out", filepath.Join(t.TempDir(), "t.blob"))
			require.Error(t, err)
		})
	}
}

func TestPushPull(t *testing.T) {
	in := writePairs(t, "1,10", "2,20")
	dir := t.TempDir()
	table := filepath.Join(dir, "table.blob")
	_, err := runCLI(t, "build", "--in", in, "--out", table)
	require.NoError(t, err)

	storeDir := filepath.Join(dir, "store")
	cfg := writeConfigFile(t, `{"compression": "zstd"}`)
	_, err = runCLI(t, "push", table, "--config", cfg, "--store", "file://"+storeDir, "--name", "tables/t.blob")
	require.NoError(t, err)

	names, err := blobstore.NewLocalStore(storeDir).List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"tables/t.blob"}, names)

	pulled := filepath.Join(dir, "pulled.blob")
	_, err = runCLI(t, "pull", "--store", storeDir, "--name", "tables/t.blob", "--out", pulled)
	require.NoError(t, err)

	stdout, err := runCLI(t, "get", pulled, "2")
	require.NoError(t, err)
	assert.Equal(t, "2: 20\n", stdout)
}

func TestPullMissing(t *testing.T) {
	_, err := runCLI(t, "pull", "--store", t.TempDir(), "--name", "nope.blob",
		"--out", filepath.Join(t.TempDir(), "x.blob"))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, "/tmp/tables")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tables/x", s.(*blobstore.LocalStore).Path("x"))

	s, err = openStore(ctx, "file:///tmp/tables")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tables/x", s.(*blobstore.LocalStore).Path("x"))

	for _, bad := range []string{"ftp://host/x", "s3:///prefix", "minio://host"} {
		_, err := openStore(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestShellExec(t *testing.T) {
	in := writePairs(t, "5,50", "5,51", "6,60")
	out := filepath.Join(t.TempDir(), "multi.blob")
	_, err := runCLI(t, "build", "--multi", "--in", in, "--out", out)
	require.NoError(t, err)

	a := &app{}
	require.NoError(t, a.init())
	tbl, err := a.openTable(out)
	require.NoError(t, err)
	defer tbl.Close()

	var buf bytes.Buffer
	sh := &shell{t: tbl, out: &buf}
	assert.False(t, sh.exec("get 5 7"))
	assert.False(t, sh.exec("has 6"))
	assert.False(t, sh.exec("count 5"))
	assert.False(t, sh.exec("bogus"))
	assert.True(t, sh.exec("quit"))

	assert.Equal(t, "5: 51 50\n7: not found\n6: true\n5: 2\nunknown command \"bogus\" (try 'help')\n", buf.String())
	assert.Equal(t, []string{"get"}, completer("g"))
}
