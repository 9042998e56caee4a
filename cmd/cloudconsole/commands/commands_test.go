package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/config"
	"github.com/matthewbaird/cloudconsole/internal/logger"
	"github.com/matthewbaird/cloudconsole/internal/seed"
	"github.com/matthewbaird/cloudconsole/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	schemaProvider, schemaOverride = "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemaDump(t *testing.T) {
	out, err := run(t, "schema", "dump")
	require.NoError(t, err)
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "AWS", p["name"])

	_, err = run(t, "schema", "dump", "--provider", "GCP")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestSchemaValidate(t *testing.T) {
	dir := t.TempDir()
	good, err := json.Marshal(seed.Clouds()[0])
	require.NoError(t, err)
	goodFile := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(goodFile, good, 0o600))

	out, err := run(t, "schema", "validate", goodFile)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	badFile := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badFile, []byte(`{"provider":"AWS","regionList":[]}`), 0o600))
	out, err = run(t, "schema", "validate", badFile)
	assert.ErrorIs(t, err, errInvalidRecord)
	assert.Contains(t, out, "name: Account Name is required.")
	assert.Contains(t, out, "regionList: Select at least one region.")
}

func TestOpenStore(t *testing.T) {
	s, closer, err := openStore(t.Context(), config.StoreConfig{Driver: config.DriverMemory}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)
	assert.NoError(t, closer.Close())

	s, closer, err = openStore(t.Context(), config.StoreConfig{
		Driver:        config.DriverSQLite,
		DSN:           "file:commands?mode=memory&cache=shared",
		EncryptionKey: "k",
	}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLStore{}, s)
	assert.NoError(t, closer.Close())

	_, _, err = openStore(t.Context(), config.StoreConfig{Driver: config.DriverSQLite}, logger.Discard())
	assert.Error(t, err)
}
