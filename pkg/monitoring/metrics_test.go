package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	successBefore := testutil.ToFloat64(OperationsTotal.WithLabelValues("test_op", ResultSuccess))
	errorBefore := testutil.ToFloat64(OperationsTotal.WithLabelValues("test_op", ResultError))

	ObserveOperation("test_op", time.Now(), nil)
	ObserveOperation("test_op", time.Now(), errors.New("failed"))
	ObserveOperation("test_op", time.Now(), errors.New("failed again"))

	assert.Equal(t, successBefore+1, testutil.ToFloat64(OperationsTotal.WithLabelValues("test_op", ResultSuccess)))
	assert.Equal(t, errorBefore+2, testutil.ToFloat64(OperationsTotal.WithLabelValues("test_op", ResultError)))
}

func TestObserveBatch(t *testing.T) {
	successBefore := testutil.ToFloat64(BatchItemsTotal.WithLabelValues("test_batch", ResultSuccess))
	errorBefore := testutil.ToFloat64(BatchItemsTotal.WithLabelValues("test_batch", ResultError))

	ObserveBatch("test_batch", 3, 1)

	assert.Equal(t, successBefore+3, testutil.ToFloat64(BatchItemsTotal.WithLabelValues("test_batch", ResultSuccess)))
	assert.Equal(t, errorBefore+1, testutil.ToFloat64(BatchItemsTotal.WithLabelValues("test_batch", ResultError)))
}
