package detector

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Verdict is the human readable classification of a single transaction.
type Verdict string

const (
	// VerdictFraudulent is shown when the model emits label 1 for a single check.
	VerdictFraudulent Verdict = "Fraudulent Transaction"
	// VerdictLegitimate is shown when the model emits label 0 for a single check.
	VerdictLegitimate Verdict = "Legitimate Transaction"

	// BatchFraudulent is the Prediction column value for label 1 in batch output.
	BatchFraudulent = "Fraudulent"
	// BatchLegitimate is the Prediction column value for label 0 in batch output.
	BatchLegitimate = "Legitimate"
)

// Transaction holds the raw, pre-encoding fields of one transaction.
type Transaction struct {
	Merchant  string
	Category  string
	Amount    decimal.Decimal
	Lat       float64
	Long      float64
	MerchLat  float64
	MerchLong float64
	Hour      int
	Day       int
	Month     int
	Gender    string
	CCNum     string
}

// ModelConfig wraps the configuration for the ONNX classifier runtime.
type ModelConfig struct {
	OrtLib     string `json:"ortLib"`
	ModelPath  string `json:"modelPath"`
	InputName  string `json:"inputName"`
	OutputName string `json:"outputName"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	ListenAddr       string      `json:"listenAddr"`
	Model            ModelConfig `json:"model"`
	EncodersPath     string      `json:"encodersPath"`
	ResultTTLMinutes int         `json:"resultTtlMinutes"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.Model.ModelPath == "" {
		c.Model.ModelPath = "./models/fraud_detection_model.onnx"
	}
	if c.Model.InputName == "" {
		c.Model.InputName = "input"
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = "label"
	}
	if c.EncodersPath == "" {
		c.EncodersPath = "./models/label_encoders.json"
	}
	if c.ResultTTLMinutes <= 0 {
		c.ResultTTLMinutes = 30
	}
}
