package detector

import (
	"errors"
	"fmt"
	"log"
	"strconv"
)

// Service orchestrates feature encoding and classification over the two
// artifacts loaded at startup. It holds no mutable state beyond them.
type Service struct {
	clf    Classifier
	enc    *LabelEncoders
	cfg    Config
	logger *log.Logger
}

// NewService constructs a service with the given classifier and encoders.
func NewService(clf Classifier, enc *LabelEncoders, cfg Config, logger *log.Logger) (*Service, error) {
	if clf == nil {
		return nil, errors.New("classifier is required")
	}
	if enc == nil {
		return nil, errors.New("label encoders are required")
	}
	cfg.ApplyDefaults()
	return &Service{clf: clf, enc: enc, cfg: cfg, logger: logger}, nil
}

// Close releases classifier resources.
func (s *Service) Close() error {
	if s.clf != nil {
		return s.clf.Close()
	}
	return nil
}

// Config returns a copy of the service configuration.
func (s *Service) Config() Config {
	return s.cfg.Clone()
}

// Encoders exposes the loaded label encoders.
func (s *Service) Encoders() *LabelEncoders {
	return s.enc
}

// CheckTransaction encodes a single transaction and returns the verdict.
func (s *Service) CheckTransaction(tx Transaction) (Verdict, error) {
	row := BuildFeatureRow(s.enc, tx)
	labels, err := s.clf.Predict([][]float32{row})
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	if len(labels) != 1 {
		return "", fmt.Errorf("expected one label, got %d", len(labels))
	}
	verdict := VerdictLegitimate
	if labels[0] == 1 {
		verdict = VerdictFraudulent
	}
	s.logf("checked transaction merchant=%q category=%q -> %s", tx.Merchant, tx.Category, verdict)
	return verdict, nil
}

// ClassifyBatch transforms and classifies a whole parsed batch in one model
// call, returning the output table with the Prediction column appended.
// Either every row is classified or none is.
func (s *Service) ClassifyBatch(batch *Batch) (*BatchResult, error) {
	if batch == nil || len(batch.Transactions) == 0 {
		return nil, errors.New("batch contains no transactions")
	}
	rows := make([][]float32, len(batch.Transactions))
	for i, tx := range batch.Transactions {
		rows[i] = BuildFeatureRow(s.enc, tx)
	}
	labels, err := s.clf.Predict(rows)
	if err != nil {
		return nil, fmt.Errorf("predict batch: %w", err)
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("expected %d labels, got %d", len(rows), len(labels))
	}

	result := &BatchResult{
		Columns: OutputColumns,
		Rows:    make([][]string, len(batch.Transactions)),
	}
	for i, tx := range batch.Transactions {
		prediction := BatchLegitimate
		if labels[i] == 1 {
			prediction = BatchFraudulent
		}
		distance := Distance(tx.Lat, tx.Long, tx.MerchLat, tx.MerchLong)
		result.Rows[i] = []string{
			strconv.Itoa(s.enc.EncodeOrSentinel("merchant", tx.Merchant)),
			strconv.Itoa(s.enc.EncodeOrSentinel("category", tx.Category)),
			tx.Amount.String(),
			strconv.Itoa(tx.Hour),
			strconv.Itoa(tx.Day),
			strconv.Itoa(tx.Month),
			strconv.Itoa(s.enc.EncodeOrSentinel("gender", tx.Gender)),
			strconv.Itoa(HashCardNumber(tx.CCNum)),
			strconv.FormatFloat(distance, 'f', 6, 64),
			prediction,
		}
	}
	s.logf("classified batch of %d transactions", len(result.Rows))
	return result, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
