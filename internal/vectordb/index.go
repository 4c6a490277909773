package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
)

const collectionName = "chunks"

// Index is a transient, in-memory similarity index over a fixed set of
// chunks. It is built for a single query and then discarded.
type Index struct {
	col    *chromem.Collection
	chunks []domain.Chunk
	// zero holds positions of chunks whose embedding has no direction;
	// they always score 0.
	zero []int
	dims int

	embed chromem.EmbeddingFunc
}

// Option configures Build.
type Option func(*Index)

// WithQueryEmbedder lets SearchText embed query strings with fn.
func WithQueryEmbedder(fn chromem.EmbeddingFunc) Option {
	return func(ix *Index) { ix.embed = fn }
}

// precomputedOnly is handed to chromem so that a missing embedding is an
// error rather than a silent call to a remote model.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, errors.New("vectordb: embeddings must be precomputed")
}

// Build indexes chunks in the given order. That order is the tie-break
// for equal scores. All embeddings must share one dimensionality.
func Build(ctx context.Context, chunks []domain.Chunk, opts ...Option) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	ix := &Index{col: col, chunks: chunks}
	for _, opt := range opts {
		opt(ix)
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for seq, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, c.ID)
		}
		if ix.dims == 0 {
			ix.dims = len(c.Embedding)
		} else if len(c.Embedding) != ix.dims {
			return nil, fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				domain.ErrInvalidInput, c.ID, len(c.Embedding), ix.dims)
		}

		vec, ok := normalize(c.Embedding)
		if !ok {
			ix.zero = append(ix.zero, seq)
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.Itoa(seq),
			Content:   c.Text,
			Embedding: vec,
			Metadata: map[string]string{
				metaCaseID:     c.CaseID,
				metaDocumentID: c.DocumentID,
			},
		})
	}

	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("index chunks: %w", err)
		}
	}
	return ix, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

// Dimensions returns the embedding size, or 0 for an empty index.
func (ix *Index) Dimensions() int { return ix.dims }

type hit struct {
	seq   int
	score float32
}

// Search returns up to k chunks ordered by descending cosine similarity
// to query, earlier chunks first on ties. A k beyond the index size
// returns every matching chunk.
func (ix *Index) Search(ctx context.Context, query []float32, k int, filter *SearchFilter) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrInvalidInput, len(query), ix.dims)
	}

	hits := make([]hit, 0, len(ix.chunks))
	qvec, ok := normalize(query)
	if !ok {
		for seq, c := range ix.chunks {
			if filter.matches(c.CaseID, c.DocumentID) {
				hits = append(hits, hit{seq: seq})
			}
		}
	} else {
		if n := ix.col.Count(); n > 0 {
			res, err := ix.col.QueryEmbedding(ctx, qvec, n, filter.where(), nil)
			if err != nil {
				return nil, fmt.Errorf("query index: %w", err)
			}
			for _, r := range res {
				seq, err := strconv.Atoi(r.ID)
				if err != nil || seq < 0 || seq >= len(ix.chunks) {
					return nil, fmt.Errorf("query index: unexpected document id %q", r.ID)
				}
				c := ix.chunks[seq]
				if !filter.matches(c.CaseID, c.DocumentID) {
					continue
				}
				hits = append(hits, hit{seq: seq, score: r.Similarity})
			}
		}
		for _, seq := range ix.zero {
			c := ix.chunks[seq]
			if filter.matches(c.CaseID, c.DocumentID) {
				hits = append(hits, hit{seq: seq})
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].seq < hits[j].seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]domain.ScoredChunk, len(hits))
	for i, h := range hits {
		out[i] = domain.ScoredChunk{Chunk: ix.chunks[h.seq], Score: h.score}
	}
	return out, nil
}

// SearchText embeds text with the query embedder and searches for it.
// An empty index returns no results without embedding.
func (ix *Index) SearchText(ctx context.Context, text string, k int, filter *SearchFilter) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(ix.chunks) == 0 {
		return nil, nil
	}
	if ix.embed == nil {
		return nil, errors.New("vectordb: index has no query embedder")
	}
	vec, err := ix.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.Search(ctx, vec, k, filter)
}

// normalize returns a unit-length copy of v. ok is false for a zero vector.
func normalize(v []float32) ([]float32, bool) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, false
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, true
}
