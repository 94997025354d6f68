package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type reclaimStub struct {
	*stubJobStore
	n   int64
	err error
}

func (r *reclaimStub) ReclaimOrphaned(ctx context.Context, graceSeconds int) (int64, error) {
	return r.n, r.err
}

func TestReconciler_ReconcileOnce_Success(t *testing.T) {
	jobs := &reclaimStub{stubJobStore: &stubJobStore{}, n: 3}
	r := &Reconciler{Jobs: jobs}
	r.reconcileOnce(context.Background())
}

func TestReconciler_ReconcileOnce_Error(t *testing.T) {
	jobs := &reclaimStub{stubJobStore: &stubJobStore{}, err: errors.New("db down")}
	r := &Reconciler{Jobs: jobs}
	assert.NotPanics(t, func() { r.reconcileOnce(context.Background()) })
}
