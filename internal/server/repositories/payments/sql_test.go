package payments

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jengacalc/jengacalc/internal/server/models"
	"github.com/jengacalc/jengacalc/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func payment(ref string, created time.Time) *models.Payment {
	return &models.Payment{Reference: ref, Email: "a@gmail.com", Amount: 50000, Kind: models.PaymentSubscription, CreatedAt: created}
}

func TestRecord_Inserted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	q := `(?s)^INSERT\s+INTO\s+payments\s*\(reference,\s*email,\s*amount,\s*kind,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*ON\s+CONFLICT\s*\(reference\)\s*DO\s+NOTHING$`
	mock.ExpectExec(q).
		WithArgs("ref-1", "a@gmail.com", int64(50000), "subscription", ts.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Record(context.Background(), payment("ref-1", ts))
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT`).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Record(context.Background(), payment("ref-1", time.Now()))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecord_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT`).WillReturnError(errors.New("db down"))

	_, err := repo.Record(context.Background(), payment("ref-1", time.Now()))
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSQLite_RecordAndList(t *testing.T) {
	repo := NewSQLiteRepository(repotest.NewSQLite(t))
	ctx := context.Background()

	older := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	ok, err := repo.Record(ctx, payment("ref-1", older))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Record(ctx, payment("ref-1", older))
	require.NoError(t, err)
	assert.False(t, ok, "same reference is recorded once")

	ok, err = repo.Record(ctx, payment("ref-2", newer))
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repo.ListByEmail(ctx, "a@gmail.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ref-2", list[0].Reference)
	assert.Equal(t, models.PaymentSubscription, list[0].Kind)
	assert.True(t, newer.Equal(list[0].CreatedAt))

	list, err = repo.ListByEmail(ctx, "nobody@gmail.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMongo_Record(t *testing.T) {
	repo := NewMongoRepository(repotest.NewMongo(t))
	ctx := context.Background()
	require.NoError(t, repo.EnsureIndexes(ctx))

	p := payment("ref-1", time.Now().UTC().Truncate(time.Millisecond))
	ok, err := repo.Record(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Record(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := repo.ListByEmail(ctx, "a@gmail.com")
	require.NoError(t, err)
	require.Len(t, list, 1)
}
