package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"planttracker-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	speciesCSV = "Species Code,Family\nASCSYR,Apocynaceae\n"

	collectionCSV = "Collection Code,Species Code,Scientific Name,Common Name,Per Ounce,Weight,Seed Count," +
		"Chaff,PLS,Date Collected,Cords,Year Collected,County,Formation,Elevation,Ran Out,Prairie Moon,Storage Code,Notes\n" +
		`C-001,ASCSYR,,Common Milkweed,,,,,,,"40° 0' 0"" N 83° 0' 0"" W",,Franklin,,,,,,` + "\n" +
		`C-002,ASCSYR,,No Position,,,,,,,,,,,,,,,` + "\n" +
		`,ASCSYR,,orphan,,,,,,,,,,,,,,,` + "\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "database.db")
	writeFile(t, dir, "app.env", "DB_DRIVER=sqlite\nDB_SOURCE="+dbPath+"\nLOG_LEVEL=error\n")

	opts := options{
		speciesPath:    writeFile(t, dir, "species.csv", speciesCSV),
		collectionPath: writeFile(t, dir, "collections.csv", collectionCSV),
		configDir:      dir,
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Equal(t, "Imported 2 collections and 1 species (1 rows skipped, 1 without position)\n", out.String())

	store, err := repository.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer store.Close()

	detail, err := store.FindCollection(context.Background(), "C-001")
	require.NoError(t, err)
	require.NotNil(t, detail.Species)
	assert.Equal(t, "ASCSYR", detail.Species.Code)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.env", "DB_DRIVER=sqlite\nDB_SOURCE="+filepath.Join(dir, "database.db")+"\nLOG_LEVEL=error\n")
	species := writeFile(t, dir, "species.csv", speciesCSV)
	collections := writeFile(t, dir, "collections.csv", collectionCSV)

	tests := []struct {
		name        string
		opts        options
		errContains string
	}{
		{
			name:        "missing species file",
			opts:        options{speciesPath: filepath.Join(dir, "nope.csv"), collectionPath: collections, configDir: dir},
			errContains: "open species file",
		},
		{
			name:        "missing collection file",
			opts:        options{speciesPath: species, collectionPath: filepath.Join(dir, "nope.csv"), configDir: dir},
			errContains: "open collection file",
		},
		{
			name:        "unparseable species file",
			opts:        options{speciesPath: writeFile(t, dir, "bad.csv", "Name\nfoo\n"), collectionPath: collections, configDir: dir},
			errContains: "species_csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRootCmd_RequiresFlags(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--species", "species.csv"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"collections"`)
}
