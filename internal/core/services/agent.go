package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/corra/internal/core/domain"
	"github.com/custodia-labs/corra/internal/core/ports/driven"
	"github.com/custodia-labs/corra/internal/core/ports/driving"
	"github.com/custodia-labs/corra/internal/logger"
)

// Ensure AgentService implements the interface.
var _ driving.Agent = (*AgentService)(nil)

const (
	// defaultBatchNotionLimit is how many documentation pages a batch
	// pulls when the request does not say.
	defaultBatchNotionLimit = 5

	// batchConcurrency bounds how many documents a batch ingests at once.
	batchConcurrency = 4

	// noContextAnswer is returned when the index holds nothing relevant.
	// No reasoning call is made in that case.
	noContextAnswer = "Nothing relevant has been indexed yet. Ingest documents first, then ask again."
)

// defaultBatchGitHubPaths are the repository files a batch ingests when
// the request names a repository but no paths.
var defaultBatchGitHubPaths = []string{"README.md"}

// AgentService runs the retrieval pipeline: ingestion of external
// documents and grounded question answering over the indexed chunks.
type AgentService struct {
	accessors   map[domain.Source]driven.SourceAccessor
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	reasoner    driven.Reasoner
	vectorIndex driven.VectorIndex
	docStore    driven.DocumentStore
	topK        int
}

// NewAgentService creates a new agent service.
// The embedder and reasoner parameters are optional (can be nil); source
// tools keep working without them and pipeline operations report which
// service is missing. A non-positive topK falls back to the default.
func NewAgentService(
	accessors []driven.SourceAccessor,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	reasoner driven.Reasoner,
	vectorIndex driven.VectorIndex,
	docStore driven.DocumentStore,
	topK int,
) *AgentService {
	bySource := make(map[domain.Source]driven.SourceAccessor, len(accessors))
	for _, accessor := range accessors {
		if accessor != nil {
			bySource[accessor.Source()] = accessor
		}
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	return &AgentService{
		accessors:   bySource,
		pipeline:    pipeline,
		embedder:    embedder,
		reasoner:    reasoner,
		vectorIndex: vectorIndex,
		docStore:    docStore,
		topK:        topK,
	}
}

// Ingest fetches one document by reference, chunks and embeds it, and
// indexes the result. Re-ingesting a reference supersedes the chunks
// indexed for it previously.
func (s *AgentService) Ingest(ctx context.Context, source domain.Source, reference string) (*driving.IngestReceipt, error) {
	logger.Section("Ingest")
	logger.Debug("Source: %s, reference: %q", source, reference)

	if err := source.Validate(); err != nil {
		return nil, err
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, &domain.ValidationError{Field: "reference", Reason: "must not be empty"}
	}

	accessor, ok := s.accessors[source]
	if !ok {
		return nil, &domain.ValidationError{
			Field:  "source",
			Reason: fmt.Sprintf("no accessor configured for %q", source),
		}
	}

	doc, err := accessor.Fetch(ctx, reference)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%s: %w", doc.ID, domain.ErrEmptyDocument)
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, &domain.PipelineError{Stage: "chunk", Cause: err}
	}
	logger.Debug("Chunked %s into %d chunks", doc.ID, len(chunks))

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &domain.PipelineError{Stage: "embed", Cause: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &domain.PipelineError{
			Stage: "embed",
			Cause: fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks)),
		}
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := s.vectorIndex.Upsert(ctx, doc.ID, chunks); err != nil {
		return nil, &domain.PipelineError{Stage: "index", Cause: err}
	}
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, &domain.PipelineError{Stage: "store", Cause: err}
	}

	logger.Info("Indexed %s (%d chunks)", doc.ID, len(chunks))
	return &driving.IngestReceipt{
		DocumentID:    doc.ID,
		Source:        source.String(),
		Title:         doc.Title,
		ChunksIndexed: len(chunks),
	}, nil
}

// IngestBatch ingests the most recent documentation pages plus the named
// repository files. Per-document failures are collected in the receipt;
// they never abort the rest of the batch.
func (s *AgentService) IngestBatch(ctx context.Context, req driving.BatchRequest) (*driving.BatchReceipt, error) {
	logger.Section("Batch Ingest")

	receipt := &driving.BatchReceipt{}

	type target struct {
		source    domain.Source
		reference string
	}
	var targets []target

	notionLimit := req.NotionLimit
	if notionLimit <= 0 {
		notionLimit = defaultBatchNotionLimit
	}
	if notion, ok := s.accessors[domain.SourceNotion]; ok {
		pages, err := notion.List(ctx, driven.ListOptions{Limit: notionLimit})
		if err != nil {
			logger.Warn("Listing documentation pages failed: %v", err)
			receipt.Failures = append(receipt.Failures, driving.BatchFailure{
				Source: domain.SourceNotion.String(),
				Reason: fmt.Sprintf("list pages: %v", err),
			})
		}
		for _, page := range pages {
			pageID := page.Metadata["page_id"]
			if pageID == "" {
				continue
			}
			targets = append(targets, target{domain.SourceNotion, pageID})
		}
	} else {
		logger.Debug("No documentation accessor configured, skipping pages")
	}

	if req.GitHubOwner != "" && req.GitHubRepo != "" {
		paths := req.GitHubPaths
		if len(paths) == 0 {
			paths = defaultBatchGitHubPaths
		}
		for _, path := range paths {
			reference := fmt.Sprintf("%s/%s/%s", req.GitHubOwner, req.GitHubRepo, path)
			targets = append(targets, target{domain.SourceGitHub, reference})
		}
	}

	logger.Debug("Batch targets: %d", len(targets))

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(batchConcurrency)

	for _, tgt := range targets {
		eg.Go(func() error {
			r, err := s.Ingest(egCtx, tgt.source, tgt.reference)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Batch ingest %s %q failed: %v", tgt.source, tgt.reference, err)
				receipt.Failures = append(receipt.Failures, driving.BatchFailure{
					Source:    tgt.source.String(),
					Reference: tgt.reference,
					Reason:    err.Error(),
				})
				return nil
			}
			receipt.DocumentsIngested++
			receipt.ChunksIndexed += r.ChunksIndexed
			return nil
		})
	}

	// Workers record failures instead of returning errors, so Wait only
	// reflects context cancellation.
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("Batch ingested %d documents (%d chunks, %d failures)",
		receipt.DocumentsIngested, receipt.ChunksIndexed, len(receipt.Failures))
	return receipt, nil
}

// Answer retrieves the chunks most similar to the question and asks the
// reasoner for an answer grounded in them. An empty retrieval yields an
// answer with zero confidence and no reasoner call.
func (s *AgentService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	logger.Section("Query")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuery
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.PipelineError{Stage: "embed", Cause: err}
	}

	hits, err := s.vectorIndex.Query(ctx, embedding, s.topK)
	if err != nil {
		return nil, &domain.PipelineError{Stage: "retrieve", Cause: err}
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	if len(hits) == 0 {
		return &domain.Answer{
			Text:       noContextAnswer,
			Sources:    []domain.Citation{},
			Confidence: 0,
		}, nil
	}

	if s.reasoner == nil {
		return nil, domain.ErrLLMUnavailable
	}

	results := s.hydrate(ctx, hits)
	contextText := redactPII(assembleContext(results))

	text, err := s.reasoner.Complete(ctx, question, contextText)
	if err != nil {
		return nil, &domain.PipelineError{Stage: "reason", Cause: err}
	}

	answer := &domain.Answer{
		Text:       text,
		Sources:    citations(results),
		Confidence: confidence(hits),
	}
	logger.Info("Answered with %d sources, confidence %.2f", len(answer.Sources), answer.Confidence)
	return answer, nil
}

// Indexed lists all documents currently indexed.
func (s *AgentService) Indexed(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// IndexedDocument returns one indexed document by ID.
func (s *AgentService) IndexedDocument(ctx context.Context, id string) (*domain.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	return s.docStore.GetDocument(ctx, id)
}

// hydrate attaches the backing document to each hit. A chunk whose
// document record is gone keeps a nil Document and is skipped for
// citations rather than failing the query.
func (s *AgentService) hydrate(ctx context.Context, hits []driven.VectorHit) []domain.RetrievalResult {
	results := make([]domain.RetrievalResult, 0, len(hits))
	cache := make(map[string]*domain.Document, len(hits))

	for _, hit := range hits {
		doc, cached := cache[hit.Chunk.DocumentID]
		if !cached {
			var err error
			doc, err = s.docStore.GetDocument(ctx, hit.Chunk.DocumentID)
			if err != nil {
				logger.Warn("Document %s missing from store: %v", hit.Chunk.DocumentID, err)
				doc = nil
			}
			cache[hit.Chunk.DocumentID] = doc
		}
		results = append(results, domain.RetrievalResult{
			Chunk:      hit.Chunk,
			Similarity: hit.Similarity,
			Document:   doc,
		})
	}
	return results
}

// assembleContext builds the reasoning context from retrieved chunks,
// grouped by document in similarity-rank order so each source is titled
// once. Chunks keep their rank order within a group.
func assembleContext(results []domain.RetrievalResult) string {
	type block struct {
		title  string
		origin string
		texts  []string
	}

	var order []string
	blocks := make(map[string]*block)

	for _, res := range results {
		id := res.Chunk.DocumentID
		b, ok := blocks[id]
		if !ok {
			b = &block{title: id}
			if res.Document != nil {
				b.title = res.Document.Title
				b.origin = res.Document.Origin
			}
			blocks[id] = b
			order = append(order, id)
		}
		b.texts = append(b.texts, res.Chunk.Content)
	}

	var sb strings.Builder
	for i, id := range order {
		b := blocks[id]
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if b.origin != "" {
			fmt.Fprintf(&sb, "Source: %s (%s)\n", b.title, b.origin)
		} else {
			fmt.Fprintf(&sb, "Source: %s\n", b.title)
		}
		sb.WriteString(strings.Join(b.texts, "\n"))
	}
	return sb.String()
}

// citations lists the distinct documents backing the retrieval, in order
// of first appearance in the similarity ranking.
func citations(results []domain.RetrievalResult) []domain.Citation {
	seen := make(map[string]bool, len(results))
	cites := make([]domain.Citation, 0, len(results))

	for _, res := range results {
		if res.Document == nil || seen[res.Chunk.DocumentID] {
			continue
		}
		seen[res.Chunk.DocumentID] = true
		cites = append(cites, domain.Citation{
			Source: res.Document.Source,
			Title:  res.Document.Title,
			Origin: res.Document.Origin,
		})
	}
	return cites
}

// confidence derives a retrieval-strength score from the similarity
// distribution. Weighted toward the best hit and tempered by the mean,
// so one strong match with weak neighbours scores lower than a uniformly
// strong retrieval. Deterministic for a given set of hits.
func confidence(hits []driven.VectorHit) float64 {
	if len(hits) == 0 {
		return 0
	}

	top := hits[0].Similarity
	var sum float64
	for _, hit := range hits {
		if hit.Similarity > top {
			top = hit.Similarity
		}
		sum += hit.Similarity
	}
	mean := sum / float64(len(hits))

	score := 0.7*top + 0.3*mean
	return math.Min(1, math.Max(0, score))
}
