// Package qdrant provides a VectorIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ersonp/lei-resolver/internal/domain/entities"
	"github.com/ersonp/lei-resolver/internal/infrastructure/config"
)

// Payload keys stored on every point.
const (
	payloadLEI  = "lei"
	payloadText = "text"
)

// leiNamespace scopes the deterministic point IDs derived from LEIs.
var leiNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:iso:std:iso:17442"))

// Repository implements ports.VectorIndex and ports.CollectionManager using
// Qdrant. Each LEI maps to exactly one point.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist. An existing
// collection with a different vector size is an error.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	info, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && size != vectorSize {
			return fmt.Errorf("collection %s has vector size %d, embedder produces %d (run 'lei init --recreate')",
				r.collection, size, vectorSize)
		}
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return classify("getting collection", err)
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return classify("creating collection", err)
	}

	return nil
}

// DeleteCollection drops the collection and every point in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil && status.Code(err) != codes.NotFound {
		return classify("deleting collection", err)
	}
	return nil
}

// Upsert stores or replaces the point for doc.LEI.
func (r *Repository) Upsert(ctx context.Context, doc entities.EmbeddingDocument) error {
	return r.UpsertBatch(ctx, []entities.EmbeddingDocument{doc})
}

// UpsertBatch stores or replaces several points in one request.
func (r *Repository) UpsertBatch(ctx context.Context, docs []entities.EmbeddingDocument) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(docs))
	for _, doc := range docs {
		points = append(points, documentToPoint(doc))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return classify("upserting points", err)
	}

	return nil
}

// QueryNearest returns up to topK neighbors. Qdrant reports cosine
// similarity, which is converted to distance.
func (r *Repository) QueryNearest(ctx context.Context, vector []float32, topK int) ([]entities.Neighbor, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Include{
				Include: &pb.PayloadIncludeSelector{Fields: []string{payloadLEI}},
			},
		},
	})
	if err != nil {
		return nil, classify("searching points", err)
	}

	return scoredPointsToNeighbors(resp.GetResult()), nil
}

// Delete removes the point for lei.
func (r *Repository) Delete(ctx context.Context, lei string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Wait:           pb.PtrOf(true),
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{pointID(lei)},
				},
			},
		},
	})
	if err != nil {
		return classify("deleting point", err)
	}

	return nil
}

// Count returns the exact number of stored points.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.points.Count(ctx, &pb.CountPoints{
		CollectionName: r.collection,
		Exact:          pb.PtrOf(true),
	})
	if err != nil {
		return 0, classify("counting points", err)
	}

	return resp.GetResult().GetCount(), nil
}

// PointID returns the deterministic point UUID for lei.
func PointID(lei string) string {
	return uuid.NewSHA1(leiNamespace, []byte(lei)).String()
}

func pointID(lei string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(lei)}}
}

func documentToPoint(doc entities.EmbeddingDocument) *pb.PointStruct {
	return &pb.PointStruct{
		Id: pointID(doc.LEI),
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: doc.Vector},
			},
		},
		Payload: map[string]*pb.Value{
			payloadLEI:  {Kind: &pb.Value_StringValue{StringValue: doc.LEI}},
			payloadText: {Kind: &pb.Value_StringValue{StringValue: doc.Text}},
		},
	}
}

// scoredPointsToNeighbors drops points without an LEI payload.
func scoredPointsToNeighbors(points []*pb.ScoredPoint) []entities.Neighbor {
	out := make([]entities.Neighbor, 0, len(points))
	for _, p := range points {
		lei := getStringValue(p.GetPayload(), payloadLEI)
		if lei == "" {
			continue
		}
		out = append(out, entities.Neighbor{
			LEI:      lei,
			Distance: 1 - float64(p.GetScore()),
		})
	}
	return out
}

// classify marks transport failures as store unavailability.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unauthenticated:
		return entities.StoreUnavailable(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
