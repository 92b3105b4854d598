package vectordb

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantIndex queries a Qdrant server over gRPC. Each retrieval namespace
// maps to a Qdrant collection; point payloads carry the source document
// filename under the "filename" key.
type QdrantIndex struct {
	conn   *grpc.ClientConn
	points qdrantclient.PointsClient
}

func NewQdrantIndex(addr string) (*QdrantIndex, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s: %w", addr, err)
	}
	return &QdrantIndex{
		conn:   conn,
		points: qdrantclient.NewPointsClient(conn),
	}, nil
}

func (q *QdrantIndex) Close() error {
	return q.conn.Close()
}

func (q *QdrantIndex) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error) {
	searchReq := &qdrantclient.SearchPoints{
		CollectionName: namespace,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"filename"},
				},
			},
		},
	}

	searchResp, err := q.points.Search(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %w", err)
	}

	matches := make([]Match, 0, len(searchResp.GetResult()))
	for _, point := range searchResp.GetResult() {
		filename := ""
		if val, ok := point.GetPayload()["filename"]; ok {
			filename = val.GetStringValue()
		}
		if filename == "" {
			// A point without a filename cannot be resolved to a document.
			continue
		}
		matches = append(matches, Match{
			Filename: filename,
			Score:    point.GetScore(),
		})
	}
	return matches, nil
}
