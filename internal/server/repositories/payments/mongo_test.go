package payments

import (
	"context"
	"testing"
	"time"

	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMongo_RecordOncePerReference(t *testing.T) {
	db := repotest.NewMongo(t)
	repo := NewMongoRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	at := time.Now().UTC().Truncate(time.Millisecond)
	p := &models.Payment{Reference: "ref-1", Email: "a@gmail.com", Amount: 50000, Kind: models.PaymentSubscription, CreatedAt: at}

	fresh, err := repo.Record(ctx, p)
	require.NoError(t, err)
	assert.True(t, fresh)

	again := *p
	again.Amount = 1
	fresh, err = repo.Record(ctx, &again)
	require.NoError(t, err)
	assert.False(t, fresh)

	list, err := repo.ListByEmail(ctx, "a@gmail.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ref-1", list[0].Reference)
	assert.EqualValues(t, 50000, list[0].Amount, "the first delivery is kept")
	assert.True(t, at.Equal(list[0].CreatedAt))
}
