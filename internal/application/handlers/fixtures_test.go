package handlers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/domain/mocks"
	"github.com/ersonp/lei-resolver/internal/domain/services"
)

const (
	appleLEI     = "HWUPKR0MPOU8FGXBT394"
	appleISIN    = "US0378331005"
	microsoftLEI = "INR2EJN1ERAN0W5ZP974"
	dellLEI      = "549300TYE2QJ4WZ1WY79"
	siemensLEI   = "W38RGI023J3WT1HWRP32"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testEntities(t *testing.T) []*entities.Entity {
	t.Helper()
	list := []entities.EntityParams{
		{LEI: appleLEI, LegalName: "Apple Inc.", IndustryCode: "Technology Hardware", Jurisdiction: "US-CA", Status: "ACTIVE", ISINs: []string{appleISIN}},
		{LEI: microsoftLEI, LegalName: "Microsoft Corporation", IndustryCode: "Software", Jurisdiction: "US-WA", Status: "ACTIVE"},
		{LEI: dellLEI, LegalName: "Dell Technologies Inc.", IndustryCode: "Technology Hardware", Jurisdiction: "US-DE", Status: "ACTIVE"},
		{LEI: siemensLEI, LegalName: "Siemens Aktiengesellschaft", Jurisdiction: "DE", Status: "ACTIVE"},
	}
	out := make([]*entities.Entity, 0, len(list))
	for _, p := range list {
		e, err := entities.NewEntity(p)
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

// testVectors gives each test entity a fixed vector. Apple's nearest
// neighbors are Dell, then Microsoft.
var testVectors = map[string][]float32{
	appleLEI:     {1, 0, 0},
	dellLEI:      {0.9, 0.1, 0},
	microsoftLEI: {0.7, 0.7, 0},
	siemensLEI:   {0, 0, 1},
}

type testPipeline struct {
	db         *mocks.RelationalDB
	index      *mocks.VectorIndex
	embedder   *mocks.Embedder
	resolution *services.ResolutionService
	indexing   *services.IndexingService
}

// newTestPipeline wires the services over in-memory stores. The embedder maps
// each entity's rendered template to its test vector; nothing is indexed yet.
func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	list := testEntities(t)
	db := mocks.NewRelationalDB(list...)
	synth := services.NewTemplateSynthesizer()
	emb := &mocks.Embedder{EmbeddingResult: []float32{0, 1, 0}, Vectors: map[string][]float32{}}
	for _, e := range list {
		emb.Vectors[synth.Render(e)] = testVectors[e.LEI]
	}
	idx := mocks.NewVectorIndex()
	client := services.NewVectorIndexClient(idx)

	return &testPipeline{
		db:       db,
		index:    idx,
		embedder: emb,
		resolution: services.NewResolutionService(
			services.NewRelationalResolver(db, discardLogger), synth, emb, client, discardLogger,
		),
		indexing: services.NewIndexingService(db, synth, emb, client, services.WithIndexLogger(discardLogger)),
	}
}
