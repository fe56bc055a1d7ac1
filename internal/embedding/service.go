package embedding

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/config"
)

// batchSize keeps requests under the API's per-call input limit.
const batchSize = 100

type Service struct {
	client     *openai.Client
	model      string
	dimensions int
}

func NewService(cfg config.EmbeddingConfig) *Service {
	return NewServiceWithClient(openai.NewClient(cfg.OpenAIKey), cfg)
}

func NewServiceWithClient(client *openai.Client, cfg config.EmbeddingConfig) *Service {
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &Service{client: client, model: model, dimensions: cfg.Dimensions}
}

func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		batch := texts[i:min(i+batchSize, len(texts))]

		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      batch,
			Model:      openai.EmbeddingModel(s.model),
			Dimensions: s.dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d: %w", i/batchSize, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("embed batch %d: got %d embeddings for %d inputs", i/batchSize, len(resp.Data), len(batch))
		}

		sort.Slice(resp.Data, func(a, b int) bool { return resp.Data[a].Index < resp.Data[b].Index })
		for _, d := range resp.Data {
			all = append(all, d.Embedding)
		}
	}

	return all, nil
}
