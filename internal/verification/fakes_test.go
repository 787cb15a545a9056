package verification

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-verifier/internal/facematch"
)

// taggedImage is a blank image that remembers which document it came from
// and which rotation was applied to it.
type taggedImage struct {
	image.Image
	tag   string
	angle int
}

func newTaggedImage(tag string) taggedImage {
	return taggedImage{Image: image.NewRGBA(image.Rect(0, 0, 640, 480)), tag: tag}
}

func fakeRotate(img image.Image, angle int) image.Image {
	t := img.(taggedImage)
	t.angle = angle
	return t
}

// vecAt returns a unit embedding whose cosine distance to reference is d.
func vecAt(d float64) facematch.Embedding {
	c := 1 - d
	return facematch.Embedding{float32(c), float32(math.Sqrt(1 - c*c))}
}

var reference = facematch.Embedding{1, 0}

func goodFace(x float64) facematch.Detection {
	return facematch.Detection{
		Box:        facematch.BBox{X: x, Y: 10, Width: 100, Height: 120},
		Confidence: 0.9,
	}
}

type detectCall struct {
	tag   string
	angle int
}

type fixture struct {
	mu         sync.Mutex
	images     map[string][]RawImage
	extractErr map[string]error
	detections map[string]map[int][]facematch.Detection
	detectErr  map[string]error
	embeddings map[string]facematch.Embedding
	embedErr   map[string]error
	calls      []detectCall
}

func newFixture() *fixture {
	return &fixture{
		images:     make(map[string][]RawImage),
		extractErr: make(map[string]error),
		detections: make(map[string]map[int][]facematch.Detection),
		detectErr:  make(map[string]error),
		embeddings: make(map[string]facematch.Embedding),
		embedErr:   make(map[string]error),
	}
}

func embedKey(tag string, x float64) string {
	return fmt.Sprintf("%s@%.0f", tag, x)
}

// doc registers a single-image document without faces.
func (f *fixture) doc(path string) {
	if _, ok := f.images[path]; !ok {
		f.images[path] = []RawImage{{Image: newTaggedImage(path), Source: path}}
	}
}

// face registers a face found in path's image at the given rotation.
func (f *fixture) face(path string, angle int, det facematch.Detection, emb facematch.Embedding) {
	f.doc(path)
	if f.detections[path] == nil {
		f.detections[path] = make(map[int][]facematch.Detection)
	}
	f.detections[path][angle] = append(f.detections[path][angle], det)
	f.embeddings[embedKey(path, det.Box.X)] = emb
}

func (f *fixture) Extract(_ context.Context, path, _ string) ([]RawImage, error) {
	if err := f.extractErr[path]; err != nil {
		return nil, err
	}
	images, ok := f.images[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return images, nil
}

func (f *fixture) Detect(_ context.Context, img image.Image) ([]facematch.Detection, error) {
	t := img.(taggedImage)
	f.mu.Lock()
	f.calls = append(f.calls, detectCall{tag: t.tag, angle: t.angle})
	f.mu.Unlock()

	if err := f.detectErr[t.tag]; err != nil {
		return nil, err
	}
	return f.detections[t.tag][t.angle], nil
}

func (f *fixture) Embed(_ context.Context, img image.Image, box facematch.BBox) (facematch.Embedding, error) {
	t := img.(taggedImage)
	if err := f.embedErr[t.tag]; err != nil {
		return nil, err
	}
	emb, ok := f.embeddings[embedKey(t.tag, box.X)]
	if !ok {
		return nil, errors.New("unknown face")
	}
	return emb, nil
}

// anglesTried returns the rotations evaluated for one document, in order.
func (f *fixture) anglesTried(tag string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var angles []int
	for _, c := range f.calls {
		if c.tag == tag {
			angles = append(angles, c.angle)
		}
	}
	return angles
}

func (f *fixture) verifier(t *testing.T, cfg Config, opts ...Option) *Verifier {
	t.Helper()
	v, err := NewVerifier(cfg, f, f, f, opts...)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	v.faces.search.rotate = fakeRotate
	return v
}

func primary(path, class string) Document {
	return Document{Role: RolePrimary, Class: class, Path: path}
}

func comparison(path, class string) Document {
	return Document{Role: RoleComparison, Class: class, Path: path}
}

type recordedEvents struct {
	mu        sync.Mutex
	documents map[string]int
	rejected  map[string]int
	decisions int
	backend   map[string]int
	statuses  []Status
}

func newRecordedEvents() *recordedEvents {
	return &recordedEvents{
		documents: make(map[string]int),
		rejected:  make(map[string]int),
		backend:   make(map[string]int),
	}
}

func (r *recordedEvents) DocumentProcessed(role DocumentRole, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[string(role)+"/"+outcome]++
}

func (r *recordedEvents) FacesRejected(reason string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason] += n
}

func (r *recordedEvents) ComparisonDecided(bool, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions++
}

func (r *recordedEvents) BackendFailed(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend[kind]++
}

func (r *recordedEvents) ApplicantVerified(status Status, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}
