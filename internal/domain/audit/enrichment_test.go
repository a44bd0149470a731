package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "workshop/internal/core/context"
	"workshop/internal/core/entity"
)

func TestEnrichCreatedBy(t *testing.T) {
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-7"})
	doc := entity.NewBaseDocument()

	require.NoError(t, EnrichCreatedBy(ctx, &doc))
	assert.Equal(t, "u-7", doc.CreatedBy)
	assert.Equal(t, "u-7", doc.UpdatedBy)
}

func TestEnrichWithoutUserIsNoop(t *testing.T) {
	doc := entity.NewBaseDocument()
	doc.CreatedBy = "seed"

	require.NoError(t, EnrichUpdatedBy(context.Background(), &doc))
	assert.Equal(t, "seed", doc.CreatedBy)
	assert.Empty(t, doc.UpdatedBy)
	assert.Equal(t, "system", Actor(context.Background()))
}
