package vectorstore

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"ragdocs/domain"
)

// QdrantIndex implements domain.VectorIndex against a Qdrant server. The
// collection is created on first use with the embedder's dimension and
// cosine distance, matching the similarity convention of the local index.
// Upserts and deletes are acknowledged (Wait=true) before success is
// reported, so durability is delegated to the server.
type QdrantIndex struct {
	embedder    domain.EmbeddingClient
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	addr        string
}

// NewQdrantIndex connects to the Qdrant server at addr (host:grpc-port).
func NewQdrantIndex(addr, collection string, embedder domain.EmbeddingClient) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, &domain.IndexError{Op: "connect", Err: err}
	}
	return &QdrantIndex{
		embedder:    embedder,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
		addr:        addr,
	}, nil
}

// ensureCollection creates the collection if it does not exist yet, sized to
// the given embedding dimension.
func (q *QdrantIndex) ensureCollection(ctx context.Context, dim int) error {
	_, err := q.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: q.collection,
	})
	if err == nil {
		return nil
	}

	log.Printf("Collection %s does not exist, creating with dimension %d", q.collection, dim)
	_, err = q.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return &domain.IndexError{Op: "create collection", Err: err}
	}
	return nil
}

// Add embeds and upserts chunks. The batch is embedded in full before any
// point is written; an embedding failure leaves the collection unchanged.
func (q *QdrantIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := q.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return &domain.IndexError{
			Op:  "add",
			Err: fmt.Errorf("embedded %d of %d chunks", len(embeddings), len(chunks)),
		}
	}

	if err := q.ensureCollection(ctx, len(embeddings[0])); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, ch := range chunks {
		payload := map[string]*qdrant.Value{
			"text": {Kind: &qdrant.Value_StringValue{StringValue: ch.Text}},
		}
		for k, v := range ch.Metadata {
			payload["meta_"+k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		points[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.New().String()}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: embeddings[i]}}},
			Payload: payload,
		}
	}

	_, err = q.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return &domain.IndexError{Op: "add", Err: err}
	}
	return nil
}

// Search embeds the query and returns the k best hits by cosine similarity.
func (q *QdrantIndex) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, &domain.IndexError{Op: "search", Err: fmt.Errorf("k must be > 0, got %d", k)}
	}

	if _, err := q.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: q.collection}); err != nil {
		// No collection yet means nothing has been indexed.
		return []domain.RetrievalResult{}, nil
	}

	queryVec, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	resp, err := q.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.collection,
		Vector:         queryVec,
		Limit:          uint64(k),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, &domain.IndexError{Op: "search", Err: err}
	}

	results := make([]domain.RetrievalResult, 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Chunk: domain.Chunk{
				Text:     payload["text"].GetStringValue(),
				Metadata: payloadMetadata(payload),
			},
			Score: hit.GetScore(),
		})
	}
	return results, nil
}

// payloadMetadata reconstructs chunk metadata from a point payload. Only the
// "meta_"-prefixed keys this index writes are considered; other writers may
// store arbitrary payloads in the same collection.
func payloadMetadata(payload map[string]*qdrant.Value) map[string]string {
	metadata := map[string]string{}
	for key, val := range payload {
		if !strings.HasPrefix(key, "meta_") {
			continue
		}
		if s := val.GetStringValue(); s != "" {
			metadata[strings.TrimPrefix(key, "meta_")] = s
		}
	}
	return metadata
}

// Delete removes points by ID.
func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}
	}
	_, err := q.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return &domain.IndexError{Op: "delete", Err: err}
	}
	return nil
}

// Clear drops the collection. It is recreated on the next Add.
func (q *QdrantIndex) Clear(ctx context.Context) error {
	_, err := q.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: q.collection})
	if err != nil {
		return &domain.IndexError{Op: "clear", Err: err}
	}
	return nil
}

// Stats reports the collection point count and vector dimension.
func (q *QdrantIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	location := fmt.Sprintf("qdrant://%s/%s", q.addr, q.collection)

	info, err := q.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{CollectionName: q.collection})
	if err != nil {
		// Collection not created yet: an empty but usable index.
		return domain.IndexStats{Location: location}, nil
	}

	stats := domain.IndexStats{Location: location}
	result := info.GetResult()
	if result != nil {
		stats.TotalVectors = int(result.GetPointsCount())
		if params := result.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
			stats.EmbeddingDimension = int(params.GetSize())
		}
	}
	return stats, nil
}
