package web

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"fraudguard/detector"
)

var (
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudguard_predictions_total",
			Help: "Total number of classified transactions",
		},
		[]string{"surface", "verdict"},
	)
	batchUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudguard_batch_uploads_total",
			Help: "Total number of batch CSV uploads",
		},
		[]string{"status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraudguard_request_duration_seconds",
			Help:    "Page request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"endpoint"},
	)
)

const validationMessage = "Please fill all required fields."

// Handler serves the four pages of the navigation shell plus the CSV
// download endpoint.
type Handler struct {
	svc    *detector.Service
	store  *resultStore
	logger *log.Logger
}

// NewHandler wires the service into the web layer. The result store TTL
// comes from the service configuration.
func NewHandler(svc *detector.Service, logger *log.Logger) *Handler {
	ttl := time.Duration(svc.Config().ResultTTLMinutes) * time.Minute
	return &Handler{svc: svc, store: newResultStore(ttl), logger: logger}
}

// checkForm carries the single-transaction form fields as submitted, so the
// page can re-render exactly what the user typed.
type checkForm struct {
	Merchant  string
	Category  string
	Amount    string
	Lat       string
	Long      string
	MerchLat  string
	MerchLong string
	Hour      string
	Day       string
	Month     string
	Gender    string
	CCNum     string
}

func defaultCheckForm() checkForm {
	return checkForm{
		Amount: "0.00",
		Lat:    "0.000000", Long: "0.000000",
		MerchLat: "0.000000", MerchLong: "0.000000",
		Hour: "12", Day: "15", Month: "6",
		Gender: "Male",
	}
}

// Two fixed autofill presets: a typical purchase and a known fraud pattern.
var presets = map[string]checkForm{
	"1": {
		Merchant: "Amazon", Category: "Shopping", Amount: "129.99",
		Lat: "40.7128", Long: "-74.0060",
		MerchLat: "40.7580", MerchLong: "-73.9855",
		Hour: "14", Day: "10", Month: "4",
		Gender: "Female", CCNum: "1234567812345678",
	},
	"2": {
		Merchant: "fraud_Rutherford-Mertz", Category: "grocery_pos", Amount: "281.06",
		Lat: "35.9946", Long: "-118.2437",
		MerchLat: "36.430124", MerchLong: "-81.17948299999999",
		Hour: "1", Day: "2", Month: "1",
		Gender: "Male", CCNum: "4613314721966",
	},
}

// Home renders the static landing panel.
func (h *Handler) Home(c *gin.Context) {
	defer observe("/", time.Now())
	c.HTML(http.StatusOK, "home", gin.H{"Active": "home"})
}

// Profile renders the static profile panel.
func (h *Handler) Profile(c *gin.Context) {
	defer observe("/profile", time.Now())
	c.HTML(http.StatusOK, "profile", gin.H{"Active": "profile"})
}

// Health reports service status.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fraudguard",
	})
}

// CheckForm renders the single-transaction form, optionally pre-filled from
// one of the two autofill presets.
func (h *Handler) CheckForm(c *gin.Context) {
	defer observe("/check", time.Now())
	form := defaultCheckForm()
	if preset, ok := presets[c.Query("preset")]; ok {
		form = preset
	}
	c.HTML(http.StatusOK, "check", gin.H{"Active": "check", "Form": form})
}

// CheckSubmit validates and classifies one transaction. Submission is
// accepted only when merchant, category and card number are all non-empty;
// numeric fields always carry a default and can never block submission.
func (h *Handler) CheckSubmit(c *gin.Context) {
	defer observe("/check", time.Now())
	form := checkForm{
		Merchant:  strings.TrimSpace(c.PostForm("merchant")),
		Category:  strings.TrimSpace(c.PostForm("category")),
		Amount:    strings.TrimSpace(c.PostForm("amt")),
		Lat:       strings.TrimSpace(c.PostForm("lat")),
		Long:      strings.TrimSpace(c.PostForm("long")),
		MerchLat:  strings.TrimSpace(c.PostForm("merch_lat")),
		MerchLong: strings.TrimSpace(c.PostForm("merch_long")),
		Hour:      strings.TrimSpace(c.PostForm("hour")),
		Day:       strings.TrimSpace(c.PostForm("day")),
		Month:     strings.TrimSpace(c.PostForm("month")),
		Gender:    strings.TrimSpace(c.PostForm("gender")),
		CCNum:     strings.TrimSpace(c.PostForm("cc_num")),
	}
	if form.Merchant == "" || form.Category == "" || form.CCNum == "" {
		c.HTML(http.StatusOK, "check", gin.H{
			"Active": "check", "Form": form, "Error": validationMessage,
		})
		return
	}

	tx := formToTransaction(form)
	verdict, err := h.svc.CheckTransaction(tx)
	if err != nil {
		h.logger.Printf("single check failed: %v", err)
		c.HTML(http.StatusInternalServerError, "check", gin.H{
			"Active": "check", "Form": form,
			"Error": fmt.Sprintf("Error: %v", err),
		})
		return
	}
	predictionsTotal.WithLabelValues("single", string(verdict)).Inc()
	c.HTML(http.StatusOK, "check", gin.H{
		"Active": "check", "Form": form, "Verdict": string(verdict),
	})
}

// BatchForm renders the upload page.
func (h *Handler) BatchForm(c *gin.Context) {
	defer observe("/batch", time.Now())
	c.HTML(http.StatusOK, "batch", gin.H{"Active": "batch"})
}

// BatchSubmit runs the full CSV pipeline over an uploaded file. Any failure
// is surfaced on the page and no partial results are shown.
func (h *Handler) BatchSubmit(c *gin.Context) {
	defer observe("/batch", time.Now())
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.renderBatchError(c, errors.New("please choose a CSV file to upload"))
		return
	}
	if err := validateUpload(fileHeader); err != nil {
		h.renderBatchError(c, err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		h.renderBatchError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	batch, err := detector.ParseBatch(f)
	if err != nil {
		h.renderBatchError(c, err)
		return
	}
	result, err := h.svc.ClassifyBatch(batch)
	if err != nil {
		h.renderBatchError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := detector.WriteCSV(&buf, result); err != nil {
		h.renderBatchError(c, err)
		return
	}
	downloadID := h.store.put(buf.Bytes())

	for _, row := range result.Rows {
		predictionsTotal.WithLabelValues("batch", row[len(row)-1]).Inc()
	}
	batchUploadsTotal.WithLabelValues("ok").Inc()
	c.HTML(http.StatusOK, "batch", gin.H{
		"Active":     "batch",
		"Columns":    result.Columns,
		"Rows":       result.Rows,
		"RowCount":   len(result.Rows),
		"DownloadID": downloadID,
	})
}

// Download serves a previously classified batch as a BOM-prefixed CSV
// attachment under the fixed filename.
func (h *Handler) Download(c *gin.Context) {
	data, ok := h.store.get(c.Param("id"))
	if !ok {
		c.String(http.StatusNotFound, "result expired, please re-upload")
		return
	}
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", detector.DownloadFilename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) renderBatchError(c *gin.Context, err error) {
	batchUploadsTotal.WithLabelValues("error").Inc()
	h.logger.Printf("batch upload rejected: %v", err)
	c.HTML(http.StatusOK, "batch", gin.H{
		"Active": "batch",
		"Error":  fmt.Sprintf("Error: %v", err),
	})
}

func validateUpload(fileHeader *multipart.FileHeader) error {
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		return fmt.Errorf("invalid file type: %s (expected .csv)", fileHeader.Filename)
	}
	return nil
}

func formToTransaction(form checkForm) detector.Transaction {
	return detector.Transaction{
		Merchant:  form.Merchant,
		Category:  form.Category,
		Amount:    formAmount(form.Amount),
		Lat:       formFloat(form.Lat, 0),
		Long:      formFloat(form.Long, 0),
		MerchLat:  formFloat(form.MerchLat, 0),
		MerchLong: formFloat(form.MerchLong, 0),
		Hour:      formInt(form.Hour, 12),
		Day:       formInt(form.Day, 15),
		Month:     formInt(form.Month, 6),
		Gender:    form.Gender,
		CCNum:     form.CCNum,
	}
}

// formAmount parses the amount field, falling back to zero so a malformed
// or negative value never blocks submission.
func formAmount(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func formFloat(v string, fallback float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func formInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func observe(endpoint string, start time.Time) {
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
