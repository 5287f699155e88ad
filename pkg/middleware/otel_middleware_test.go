package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func TestOpenTelemetryConfig(t *testing.T) {
	config := defaultOTelConfig()
	assert.Equal(t, "stcms", config.TracerName)
	assert.Nil(t, config.Filter)

	WithTracerName("docs")(&config)
	WithRequestFilter(func(r *http.Request) bool { return false })(&config)
	WithAttributeExtractor(func(r *http.Request) []attribute.KeyValue { return nil })(&config)

	assert.Equal(t, "docs", config.TracerName)
	assert.NotNil(t, config.Filter)
	assert.NotNil(t, config.AttributeExtractor)
}

func TestOpenTelemetryMiddleware_PassesSpanContext(t *testing.T) {
	var sawSpan bool
	extracted := false
	mw := OpenTelemetry(WithAttributeExtractor(func(r *http.Request) []attribute.KeyValue {
		extracted = true
		return []attribute.KeyValue{attribute.String("site.lang", "en")}
	}))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en/docs", nil))

	assert.True(t, sawSpan)
	assert.True(t, extracted)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	extracted := false
	called := false
	mw := OpenTelemetry(
		WithRequestFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
		WithAttributeExtractor(func(r *http.Request) []attribute.KeyValue {
			extracted = true
			return nil
		}),
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.True(t, called)
	assert.False(t, extracted)
}
