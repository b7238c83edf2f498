package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("activate", "ok"))
	RecordAPIRequest("activate", "ok", 0.2)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("activate", "ok"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordLicenceOperation(t *testing.T) {
	before := testutil.ToFloat64(LicenceOperationsTotal.WithLabelValues("deactivate", "success"))
	RecordLicenceOperation("deactivate", "success")
	RecordLicenceOperation("deactivate", "success")
	after := testutil.ToFloat64(LicenceOperationsTotal.WithLabelValues("deactivate", "success"))
	if after-before != 2 {
		t.Fatalf("expected counter to increase by 2, got %v", after-before)
	}
}
