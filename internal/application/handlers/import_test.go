package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/mocks"
	"github.com/ersonp/lei-resolver/internal/domain/services"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportHandler_Handle_CSVFile(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewImportHandler(services.NewImportService(db, discardLogger))

	path := writeFile(t, "golden-copy.csv",
		"LEI,Entity.LegalName,Entity.EntityStatus,Registration.RegistrationStatus\n"+
			appleLEI+",Apple Inc.,ACTIVE,ISSUED\n"+
			dellLEI+",Dell Technologies Inc.,ACTIVE,LAPSED\n")

	result, err := handler.Handle(t.Context(), path, ImportOptions{ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)

	apple, err := db.FindByLEI(t.Context(), appleLEI)
	require.NoError(t, err)
	require.NotNil(t, apple)
	assert.Equal(t, "Apple Inc.", apple.LegalName)
}

func TestImportHandler_Handle_JSONFile(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewImportHandler(services.NewImportService(db, discardLogger))

	path := writeFile(t, "entities.json",
		`[{"lei": "`+appleLEI+`", "legal_name": "Apple Inc.", "isins": ["`+appleISIN+`"]}]`)

	result, err := handler.Handle(t.Context(), path, ImportOptions{Kind: ImportEntities})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	found, err := db.FindByISIN(t.Context(), appleISIN)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestImportHandler_Handle_ExplicitFormat(t *testing.T) {
	db := mocks.NewRelationalDB()
	handler := NewImportHandler(services.NewImportService(db, discardLogger))

	path := writeFile(t, "entities.txt", "LEI,Entity.LegalName\n"+appleLEI+",Apple Inc.\n")

	_, err := handler.Handle(t.Context(), path, ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	result, err := handler.Handle(t.Context(), path, ImportOptions{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportHandler_Handle_ISINs(t *testing.T) {
	db := mocks.NewRelationalDB(testEntities(t)...)
	handler := NewImportHandler(services.NewImportService(db, discardLogger))

	path := writeFile(t, "isin_lei.csv", "LEI,ISIN\n"+siemensLEI+",DE0007236101\n"+siemensLEI+",BAD\n")

	result, err := handler.Handle(t.Context(), path, ImportOptions{Kind: ImportISINs})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Line)

	found, err := db.FindByISIN(t.Context(), "DE0007236101")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, siemensLEI, found[0].LEI)
}

func TestImportHandler_Handle_Errors(t *testing.T) {
	handler := NewImportHandler(services.NewImportService(mocks.NewRelationalDB(), discardLogger))

	_, err := handler.Handle(t.Context(), filepath.Join(t.TempDir(), "missing.csv"), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening file")

	_, err = handler.Handle(t.Context(), "x.csv", ImportOptions{Kind: "facts"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown import kind")
}
