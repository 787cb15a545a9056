package verification

import (
	"context"
	"fmt"
)

// FaceExtractor turns a document into embedded faces: it extracts the
// document's images, finds the best orientation of each and embeds every
// qualified face on the rotated image.
type FaceExtractor struct {
	documents DocumentExtractor
	search    *RotationSearch
	embedder  Embedder
}

// NewFaceExtractor creates a face extractor.
func NewFaceExtractor(documents DocumentExtractor, search *RotationSearch, embedder Embedder) *FaceExtractor {
	return &FaceExtractor{documents: documents, search: search, embedder: embedder}
}

// Extract returns all qualified faces of doc in image order.
func (e *FaceExtractor) Extract(ctx context.Context, doc Document) ([]EmbeddedFace, error) {
	images, err := e.documents.Extract(ctx, doc.Path, doc.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("extracting images: %w", err)
	}

	var faces []EmbeddedFace
	for _, raw := range images {
		orientation, err := e.search.Search(ctx, raw.Image)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", raw.Index, err)
		}

		for _, face := range orientation.Faces {
			embedding, err := e.embedder.Embed(ctx, orientation.Image, face.Box)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", raw.Index, embeddingError(err))
			}
			if len(embedding) == 0 {
				return nil, fmt.Errorf("image %d: %w", raw.Index, embeddingError(fmt.Errorf("empty embedding")))
			}
			faces = append(faces, EmbeddedFace{
				QualifiedFace: face,
				Embedding:     embedding,
				DocumentRole:  doc.Role,
				Document:      doc.DisplayName(),
				ImageIndex:    raw.Index,
			})
		}
	}
	return faces, nil
}
