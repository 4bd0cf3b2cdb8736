package detector

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Classifier exposes the minimal surface the service layer needs from the
// pre-trained model artifact.
type Classifier interface {
	// Predict returns one binary label (0 or 1) per feature row.
	Predict(rows [][]float32) ([]int, error)
	Close() error
}

// OnnxClassifier runs the gradient-boosted-tree artifact through an ONNX
// runtime session. The artifact itself stays opaque; only the input/output
// tensor names and the feature width are known to this code.
type OnnxClassifier struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	cfg     ModelConfig
}

// NewOnnxClassifier initializes the runtime environment and opens a session
// over the model artifact. Any failure here is fatal to the caller by
// design: there is no fallback model.
func NewOnnxClassifier(cfg ModelConfig) (*OnnxClassifier, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "label"
	}
	if cfg.OrtLib != "" {
		ort.SetSharedLibraryPath(cfg.OrtLib)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("init onnx runtime: %w", err)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", cfg.ModelPath, err)
	}
	return &OnnxClassifier{session: session, cfg: cfg}, nil
}

// Predict classifies all rows in a single session run.
func (c *OnnxClassifier) Predict(rows [][]float32) ([]int, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	width := len(FeatureColumns)
	flat := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
		flat = append(flat, row...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, errors.New("classifier is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(rows)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	defer outputs[0].Destroy()

	labelTensor, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return nil, fmt.Errorf("output %q is not an int64 tensor", c.cfg.OutputName)
	}
	labels := labelTensor.GetData()
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("model returned %d labels for %d rows", len(labels), len(rows))
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = int(l)
	}
	return out, nil
}

// Close releases the ONNX session. Safe to call more than once.
func (c *OnnxClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		err := c.session.Destroy()
		c.session = nil
		return err
	}
	return nil
}
