package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knoway.dev/pkg/metrics"
)

type chunk struct {
	Text string
}

func TestConvertPlainData(t *testing.T) {
	item := AnnotatedItem[chunk]{Data: &chunk{Text: "hi"}}

	event, err := Convert(item, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Text":"hi"}`, string(event.Data))
	assert.Empty(t, event.Event)
}

func TestConvertErrorTag(t *testing.T) {
	item := AnnotatedItem[chunk]{Event: ErrorTag, Comment: []string{"boom"}}

	_, err := Convert(item, nil, nil)
	require.Error(t, err)

	terr, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, "boom", terr.Message)
}

// TestConvertMetricAnnotationStripping covers spec testable property 7: a
// metrics-tagged item loses its tag and comments on the outgoing event, and
// the collector observes the usage it carried.
func TestConvertMetricAnnotationStripping(t *testing.T) {
	collector := metrics.NewResponseMetricCollector("test-model")

	metricOf := func(c chunk) (*MetricAnnotation, bool) {
		if c.Text != "usage" {
			return nil, false
		}

		return &MetricAnnotation{InputTokens: 10, OutputTokens: 20, ChunkTokens: 5}, true
	}

	item := AnnotatedItem[chunk]{
		Data:  &chunk{Text: "usage"},
		Event: MetricsAnnotationTag,
	}

	event, err := Convert(item, collector, metricOf)
	require.NoError(t, err)
	assert.Empty(t, event.Event)
	assert.Empty(t, event.Comment)
	assert.Equal(t, uint64(20), collector.CurrentOSL())
	assert.Equal(t, uint64(10), collector.InputTokens())
	assert.Equal(t, uint64(5), collector.ChunkTokens())
}

func TestConvertNonMatchingMetricLeavesEventAlone(t *testing.T) {
	item := AnnotatedItem[chunk]{Data: &chunk{Text: "hi"}, Event: "custom"}

	metricOf := func(c chunk) (*MetricAnnotation, bool) { return nil, false }

	event, err := Convert(item, nil, metricOf)
	require.NoError(t, err)
	assert.Equal(t, "custom", event.Event)
}
