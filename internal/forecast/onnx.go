package forecast

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXForecaster runs an exported sequence model through onnxruntime. The
// model takes a (1, seqLen, featureDim) float32 tensor of reference-scaled
// features and emits a single reference-scaled next-price estimate.
type ONNXForecaster struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	size    int
}

// InitializeORT points onnxruntime at the shared library for the current
// platform and initializes the environment. Safe to call more than once.
func InitializeORT() error {
	if ort.IsInitialized() {
		return nil
	}
	libPath := "/usr/lib/libonnxruntime.so"
	if runtime.GOOS == "windows" {
		libPath = "onnxruntime.dll"
	} else if runtime.GOOS == "darwin" {
		libPath = "libonnxruntime.dylib"
	}
	ort.SetSharedLibraryPath(libPath)
	return ort.InitializeEnvironment()
}

func NewONNXForecaster(modelPath string, seqLen, featureDim int) (*ONNXForecaster, error) {
	if err := InitializeORT(); err != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", err)
	}

	size := seqLen * featureDim
	inputShape := ort.NewShape(1, int64(seqLen), int64(featureDim))
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, size))
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("creating session for %s: %w", modelPath, err)
	}

	return &ONNXForecaster{
		session: session,
		input:   inputTensor,
		output:  outputTensor,
		size:    size,
	}, nil
}

func (m *ONNXForecaster) Predict(window []float32) (float64, error) {
	if len(window) != m.size {
		return 0, fmt.Errorf("%w: feature window has %d values, model expects %d", ErrInvalidInput, len(window), m.size)
	}
	copy(m.input.GetData(), window)
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}
	return float64(m.output.GetData()[0]), nil
}

func (m *ONNXForecaster) Close() error {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
	return nil
}
