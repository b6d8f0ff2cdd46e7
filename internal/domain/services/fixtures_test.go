package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/mocks"
)

const (
	appleLEI     = "HWUPKR0MPOU8FGXBT394"
	appleISIN    = "US0378331005"
	microsoftLEI = "INR2EJN1ERAN0W5ZP974"
	dellLEI      = "549300TYE2QJ4WZ1WY79"
	siemensLEI   = "W38RGI023J3WT1HWRP32"
	ibmLEI       = "VGRQXHF3J8VDLUA7XE92"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func mustEntity(t *testing.T, p entities.EntityParams) *entities.Entity {
	t.Helper()
	e, err := entities.NewEntity(p)
	require.NoError(t, err)
	return e
}

// testEntities returns a small universe of companies.
func testEntities(t *testing.T) []*entities.Entity {
	t.Helper()
	return []*entities.Entity{
		mustEntity(t, entities.EntityParams{
			LEI: appleLEI, LegalName: "Apple Inc.", IndustryCode: "Technology Hardware",
			Jurisdiction: "US-CA", Status: "ACTIVE", ISINs: []string{appleISIN},
		}),
		mustEntity(t, entities.EntityParams{
			LEI: microsoftLEI, LegalName: "Microsoft Corporation", IndustryCode: "Software",
			Jurisdiction: "US-WA", Status: "ACTIVE", ISINs: []string{"US5949181045"},
		}),
		mustEntity(t, entities.EntityParams{
			LEI: dellLEI, LegalName: "Dell Technologies Inc.", IndustryCode: "Technology Hardware",
			Jurisdiction: "US-DE", Status: "ACTIVE",
		}),
		mustEntity(t, entities.EntityParams{
			LEI: siemensLEI, LegalName: "Siemens Aktiengesellschaft", IndustryCode: "Industrial Conglomerates",
			Jurisdiction: "DE", Status: "ACTIVE",
		}),
	}
}

// testVectors gives each test entity a fixed vector. Apple's neighbors by
// cosine similarity are Dell, then Microsoft, then Siemens.
var testVectors = map[string][]float32{
	appleLEI:     {1, 0, 0},
	dellLEI:      {0.9, 0.1, 0},
	microsoftLEI: {0.7, 0.7, 0},
	siemensLEI:   {0, 0, 1},
}

// newTestPipeline builds a resolution service over in-memory stores. The
// embedder maps each entity's rendered template to its test vector.
func newTestPipeline(t *testing.T) (*ResolutionService, *mocks.RelationalDB, *mocks.VectorIndex, *mocks.Embedder) {
	t.Helper()

	list := testEntities(t)
	db := mocks.NewRelationalDB(list...)
	synth := NewTemplateSynthesizer()

	emb := &mocks.Embedder{EmbeddingResult: []float32{0, 1, 0}, Vectors: map[string][]float32{}}
	idx := mocks.NewVectorIndex()
	for _, e := range list {
		text := synth.Render(e)
		emb.Vectors[text] = testVectors[e.LEI]
		require.NoError(t, idx.Upsert(t.Context(), entities.EmbeddingDocument{LEI: e.LEI, Text: text, Vector: testVectors[e.LEI]}))
	}

	svc := NewResolutionService(
		NewRelationalResolver(db, discardLogger),
		synth,
		emb,
		NewVectorIndexClient(idx),
		discardLogger,
	)
	return svc, db, idx, emb
}
