package ai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"personcam/internal/logger"
	"personcam/internal/models"

	"gocv.io/x/gocv"
)

// personClassID is the "person" class in the SSD MobileNet COCO label map.
const personClassID = 1

// ErrDecode reports that the input bytes could not be decoded as an image.
// It is distinct from model-invocation failures so callers can tell a bad
// frame apart from a broken detector.
var ErrDecode = errors.New("unable to decode image")

// Result is the outcome of analyzing a single frame. A zero PersonCount with
// a nil error means the frame was analyzed successfully and no one was there.
type Result struct {
	Annotated   []byte
	PersonCount int
	Confidence  float64
}

// DetectorService wraps the object-detection network. It decodes a frame,
// keeps only person-class detections, draws their bounding boxes, and
// re-encodes the annotated frame as JPEG.
type DetectorService struct {
	net       gocv.Net
	threshold float64
	logger    *logger.Logger

	// The network is not safe for concurrent use; invocations serialize here.
	mu sync.Mutex
}

// NewDetectorService loads the detection network from the model and config
// files. The model handle lives for the whole process and is injected into
// the pipeline at construction.
func NewDetectorService(modelPath, configPath string, threshold float64, log *logger.Logger) (*DetectorService, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model config file not found: %s", configPath)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load detection network from %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, fmt.Errorf("failed to set network target: %w", err)
	}

	log.Infow("detection network initialized", "model", modelPath)

	return &DetectorService{
		net:       net,
		threshold: threshold,
		logger:    log,
	}, nil
}

// Detect analyzes a frame and returns the annotated image along with the
// person count and the maximum confidence among person detections. The
// annotated image is produced even when no persons are found.
//
// Callers bound the wait with the context: a request whose deadline expires
// while queued behind the mutex fails fast. An in-flight inference is not
// preemptible.
func (s *DetectorService) Detect(ctx context.Context, imageBytes []byte) (*Result, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, ErrDecode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("detection canceled while queued: %w", err)
	}

	persons, err := s.detectPersons(mat)
	if err != nil {
		return nil, err
	}

	if err := annotate(&mat, persons); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	defer buf.Close()

	annotated := make([]byte, len(buf.GetBytes()))
	copy(annotated, buf.GetBytes())

	count, maxConfidence := Summarize(persons)

	return &Result{
		Annotated:   annotated,
		PersonCount: count,
		Confidence:  maxConfidence,
	}, nil
}

// detectPersons runs the network and keeps detections of the person class
// above the confidence threshold, in pixel coordinates.
func (s *DetectorService) detectPersons(mat gocv.Mat) ([]models.DetectedObject, error) {
	if s.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")

	output := s.net.Forward("")
	defer output.Close()

	reshaped := output.Reshape(1, output.Total()/7)
	defer reshaped.Close()

	var persons []models.DetectedObject
	for i := 0; i < reshaped.Rows(); i++ {
		confidence := float64(reshaped.GetFloatAt(i, 2))
		if confidence < s.threshold {
			continue
		}
		if int(reshaped.GetFloatAt(i, 1)) != personClassID {
			continue
		}

		x := int(reshaped.GetFloatAt(i, 3) * float32(mat.Cols()))
		y := int(reshaped.GetFloatAt(i, 4) * float32(mat.Rows()))
		width := int(reshaped.GetFloatAt(i, 5)*float32(mat.Cols())) - x
		height := int(reshaped.GetFloatAt(i, 6)*float32(mat.Rows())) - y

		persons = append(persons, models.DetectedObject{
			Label:      "person",
			Confidence: confidence,
			X:          x,
			Y:          y,
			Width:      width,
			Height:     height,
		})
	}

	return persons, nil
}

// annotate draws a box and confidence caption for every person detection.
func annotate(mat *gocv.Mat, persons []models.DetectedObject) error {
	green := color.RGBA{R: 0, G: 255, B: 0, A: 0}

	for _, p := range persons {
		rect := image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
		if err := gocv.Rectangle(mat, rect, green, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		caption := fmt.Sprintf("Person %.2f", p.Confidence)
		if err := gocv.PutText(mat, caption, image.Pt(p.X, p.Y-10), gocv.FontHersheySimplex, 0.5, green, 2); err != nil {
			return fmt.Errorf("failed to draw caption: %w", err)
		}
	}

	return nil
}

// Summarize reduces person detections to the count and maximum confidence.
// Confidence is 0.0 when there are no detections.
func Summarize(persons []models.DetectedObject) (int, float64) {
	maxConfidence := 0.0
	for _, p := range persons {
		if p.Confidence > maxConfidence {
			maxConfidence = p.Confidence
		}
	}
	return len(persons), maxConfidence
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
