package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, FormID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)

	fixed := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	ctx = WithTime(WithFormID(WithRequestID(ctx, "req-1"), "form-1"), fixed)

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "form-1", FormID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
