// Package mock provides a test double implementation of ai.Embedder.
//
// The mock generates deterministic vectors from a hash of the input text,
// so the same text always embeds to the same vector — the stability
// guarantee the real provider contract requires. Tests can inject custom
// behavior through the function fields:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
package mock
