package web

import (
	"bytes"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudguard/detector"
)

const sampleCSV = "merchant,category,amt,lat,long,merch_lat,merch_long,hour,day,month,gender,cc_num\n" +
	"Amazon,Shopping,129.99,40.7128,-74.0060,40.7580,-73.9855,14,10,4,Female,1234567812345678\n" +
	"fraud_Rutherford-Mertz,grocery_pos,281.06,35.9946,-118.2437,36.430124,-81.17948299999999,1,2,1,Male,4613314721966\n"

// stubClassifier flags transactions with an amount above the threshold.
type stubClassifier struct {
	threshold float32
	calls     int
}

func (s *stubClassifier) Predict(rows [][]float32) ([]int, error) {
	s.calls++
	out := make([]int, len(rows))
	for i, row := range rows {
		if row[2] > s.threshold {
			out[i] = 1
		}
	}
	return out, nil
}

func (s *stubClassifier) Close() error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *stubClassifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clf := &stubClassifier{threshold: 200}
	enc := detector.NewLabelEncoders(map[string]map[string]int{
		"merchant": {"Amazon": 12, "fraud_Rutherford-Mertz": 301},
		"category": {"Shopping": 4, "grocery_pos": 7},
		"gender":   {"Female": 0, "Male": 1},
	})
	svc, err := detector.NewService(clf, enc, detector.Config{}, nil)
	require.NoError(t, err)
	return NewRouter(svc, log.New(io.Discard, "", 0)), clf
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

func uploadCSV(router *gin.Engine, filename, contents string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", filename)
	_, _ = fw.Write([]byte(contents))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)
	return w
}

func checkFormValues(merchant, category, ccNum string) url.Values {
	return url.Values{
		"merchant": {merchant}, "category": {category}, "amt": {"129.99"},
		"lat": {"40.7128"}, "long": {"-74.0060"},
		"merch_lat": {"40.7580"}, "merch_long": {"-73.9855"},
		"hour": {"14"}, "day": {"10"}, "month": {"4"},
		"gender": {"Female"}, "cc_num": {ccNum},
	}
}

func TestHomePage(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to Fraud Detection System")
}

func TestProfilePage(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/profile")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fraud Analyst")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCheckFormPresets(t *testing.T) {
	router, _ := newTestRouter(t)

	w := get(router, "/check?preset=1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amazon")
	assert.Contains(t, w.Body.String(), "129.99")

	w = get(router, "/check?preset=2")
	assert.Contains(t, w.Body.String(), "fraud_Rutherford-Mertz")

	// Unknown preset falls back to the defaults.
	w = get(router, "/check?preset=9")
	assert.Contains(t, w.Body.String(), `name="hour" min="0" max="23" value="12"`)
}

func TestCheckSubmitRequiredFields(t *testing.T) {
	testCases := []struct {
		name                      string
		merchant, category, ccNum string
	}{
		{name: "empty merchant", category: "Shopping", ccNum: "1234567812345678"},
		{name: "empty category", merchant: "Amazon", ccNum: "1234567812345678"},
		{name: "empty card number", merchant: "Amazon", category: "Shopping"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, clf := newTestRouter(t)
			w := postForm(router, "/check", checkFormValues(tc.merchant, tc.category, tc.ccNum))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), validationMessage)
			assert.Zero(t, clf.calls, "classifier must not run on rejected submissions")
		})
	}
}

func TestCheckSubmitVerdicts(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postForm(router, "/check", checkFormValues("Amazon", "Shopping", "1234567812345678"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Legitimate Transaction")

	form := checkFormValues("fraud_Rutherford-Mertz", "grocery_pos", "4613314721966")
	form.Set("amt", "281.06")
	w = postForm(router, "/check", form)
	assert.Contains(t, w.Body.String(), "Fraudulent Transaction")
}

func TestBatchUploadAndDownload(t *testing.T) {
	router, _ := newTestRouter(t)

	w := uploadCSV(router, "transactions.csv", sampleCSV)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Batch Prediction Complete")
	assert.Contains(t, body, "Legitimate")
	assert.Contains(t, body, "Fraudulent")

	m := regexp.MustCompile(`/download/([0-9a-f-]+)`).FindStringSubmatch(body)
	require.NotNil(t, m, "result page must link to the CSV download")

	dl := get(router, "/download/"+m[1])
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "fraud_predictions.csv")
	assert.True(t, bytes.HasPrefix(dl.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(dl.Body.String()), "\n")+1,
		"header plus one line per input row")
}

func TestBatchUploadMissingColumns(t *testing.T) {
	router, clf := newTestRouter(t)
	w := uploadCSV(router, "broken.csv", "merchant,category\nAmazon,Shopping\n")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CSV must contain columns")
	assert.Contains(t, w.Body.String(), "merch_lat")
	assert.Zero(t, clf.calls, "no transformation when columns are missing")
}

func TestBatchUploadMalformedRow(t *testing.T) {
	router, _ := newTestRouter(t)
	bad := sampleCSV + "Amazon,Shopping,oops,40.7,-74.0,40.7,-73.9,14,10,4,Female,1\n"
	w := uploadCSV(router, "bad.csv", bad)
	body := w.Body.String()
	assert.Contains(t, body, "Error:")
	assert.NotContains(t, body, "Batch Prediction Complete", "no partial results")
}

func TestBatchUploadRejectsNonCSV(t *testing.T) {
	router, _ := newTestRouter(t)
	w := uploadCSV(router, "data.txt", sampleCSV)
	assert.Contains(t, w.Body.String(), "invalid file type")
}

func TestDownloadUnknownID(t *testing.T) {
	router, _ := newTestRouter(t)
	w := get(router, "/download/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
