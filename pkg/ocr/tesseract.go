package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ocrDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nilai",
		Subsystem: "ocr",
		Name:      "recognition_duration_seconds",
		Help:      "Duration of OCR recognition requests",
	})

	ocrFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nilai",
		Subsystem: "ocr",
		Name:      "recognition_failures_total",
		Help:      "Number of OCR recognition failures",
	})
)

// TesseractConfig defines configuration options for the Tesseract recognizer.
type TesseractConfig struct {
	Languages []string
	DPI       int
	Logger    zerolog.Logger
}

// TesseractRecognizer implements Recognizer on top of the gosseract client.
// A fresh client is created per request; gosseract clients are not safe for
// concurrent use.
type TesseractRecognizer struct {
	cfg           TesseractConfig
	clientFactory func() *gosseract.Client
	tracer        trace.Tracer
	logger        zerolog.Logger
}

// NewTesseractRecognizer builds a Tesseract-backed recognizer.
func NewTesseractRecognizer(cfg TesseractConfig) *TesseractRecognizer {
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &TesseractRecognizer{
		cfg:           cfg,
		clientFactory: gosseract.NewClient,
		tracer:        otel.Tracer("github.com/noah-isme/nilai-go-api/pkg/ocr/tesseract"),
		logger:        logger.With().Str("component", "tesseract_recognizer").Logger(),
	}
}

// Recognize runs OCR over the supplied image bytes and reports the mean word
// confidence alongside the recovered text.
func (r *TesseractRecognizer) Recognize(parent context.Context, image []byte) (Result, error) {
	_, span := r.tracer.Start(parent, "ocr.recognize", trace.WithAttributes(
		attribute.Int("ocr.image_bytes", len(image)),
	))
	defer span.End()

	start := time.Now()
	result, err := r.recognize(image)
	ocrDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ocrFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	span.SetAttributes(attribute.Float64("ocr.confidence", result.Confidence))
	r.logger.Debug().Float64("confidence", result.Confidence).Int("chars", len(result.Text)).Msg("recognition completed")

	return result, nil
}

func (r *TesseractRecognizer) recognize(image []byte) (Result, error) {
	client := r.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}

	if len(r.cfg.Languages) > 0 {
		if err := client.SetLanguage(r.cfg.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	if r.cfg.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(r.cfg.DPI)); err != nil {
			return Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return Result{
		Text:       strings.TrimSpace(text),
		Confidence: meanConfidence(client),
	}, nil
}

func meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}

	var sum float64
	for _, box := range boxes {
		sum += box.Confidence / 100.0
	}

	return sum / float64(len(boxes))
}
