package detector

// FeatureColumns is the exact column order the classifier was trained on.
// The names are an opaque training-time invariant; a mismatch here is a
// silent correctness bug, not something the model can detect.
var FeatureColumns = []string{
	"merchant", "category", "amt", "distance", "hour", "day", "month", "gender", "cc_num",
}

// BuildFeatureRow encodes one transaction into the row shape the classifier
// expects: categorical columns replaced by trained codes (or the sentinel),
// the four raw coordinates collapsed into the distance feature, and the card
// number reduced to its two-digit code.
func BuildFeatureRow(enc *LabelEncoders, tx Transaction) []float32 {
	distance := Distance(tx.Lat, tx.Long, tx.MerchLat, tx.MerchLong)
	return []float32{
		float32(enc.EncodeOrSentinel("merchant", tx.Merchant)),
		float32(enc.EncodeOrSentinel("category", tx.Category)),
		float32(tx.Amount.InexactFloat64()),
		float32(distance),
		float32(tx.Hour),
		float32(tx.Day),
		float32(tx.Month),
		float32(enc.EncodeOrSentinel("gender", tx.Gender)),
		float32(HashCardNumber(tx.CCNum)),
	}
}
