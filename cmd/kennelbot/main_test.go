package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kennelbot/core/fileutil"
	"github.com/m3rciful/kennelbot/kennel/catalog"
	"github.com/m3rciful/kennelbot/kennel/inquiry"
)

func TestInitCatalogSeedsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puppies.json")
	var out bytes.Buffer

	require.NoError(t, initCatalog(t.Context(), &out, path, false))
	assert.Contains(t, out.String(), "2 puppies, 2 available")

	var c catalog.Catalog
	found, err := fileutil.ReadJSON(path, &c)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, c.Items, 2)
}

func TestInitCatalogKeepsExistingUnlessForced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puppies.json")
	custom := catalog.Seed()
	custom.Items = custom.Items[:1]
	require.NoError(t, fileutil.WriteJSON(path, custom))

	var out bytes.Buffer
	require.NoError(t, initCatalog(t.Context(), &out, path, false))
	assert.Contains(t, out.String(), "1 puppies")

	out.Reset()
	require.NoError(t, initCatalog(t.Context(), &out, path, true))
	assert.Contains(t, out.String(), "catalog written to")

	var c catalog.Catalog
	_, err := fileutil.ReadJSON(path, &c)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestPrintInquiriesTable(t *testing.T) {
	records := []inquiry.Record{{
		Date:    "2024-05-01T10:00:00.000000",
		Name:    "Alice",
		Phone:   "555-1234",
		Email:   "a@b.com",
		Message: "Interested\nin Bruno",
		UserID:  42,
	}}
	var out bytes.Buffer
	require.NoError(t, printInquiries(&out, records, false))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "DATE")
	assert.Contains(t, string(lines[1]), "Interested in Bruno")
}

func TestPrintInquiriesEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printInquiries(&out, nil, false))
	assert.Equal(t, "no inquiries\n", out.String())

	out.Reset()
	require.NoError(t, printInquiries(&out, nil, true))
	var decoded []inquiry.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Empty(t, decoded)
	assert.NotNil(t, decoded)
}

func TestVersionCommand(t *testing.T) {
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "kennelbot ")
}
