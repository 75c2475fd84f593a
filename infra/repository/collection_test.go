package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockCollection(t *testing.T) (*Collection[contribution.Record], sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewCollection[contribution.Record](db, repository.ContributionSchema), mock
}

func pendingRecord() *contribution.Record {
	email := "a@x.com"
	return &contribution.Record{
		ContributorName:  "Ada",
		ContributorEmail: &email,
		Kind:             contribution.KindDonation,
		Program:          "skills",
		Amount:           decimal.NewFromInt(50),
		Currency:         "USD",
		PaymentMethod:    contribution.MethodCard,
		Status:           contribution.StatusPending,
	}
}

func recordRows(id uuid.UUID, version int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "version", "created_at", "updated_at", "contributor_name", "contributor_email",
		"kind", "program", "amount", "currency", "payment_method", "status",
	}).AddRow(id.String(), version, now, now, "Ada", "a@x.com", "donation", "skills", "50.00", "USD", "card-gateway", "pending")
}

func TestCollection_Add(t *testing.T) {
	col, mock := newMockCollection(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO "contributions" (.+) VALUES (.+)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := pendingRecord()
	require.NoError(t, col.Add(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, 1, rec.Version)
	assert.False(t, rec.CreatedAt.IsZero())

	mock.ExpectExec(`INSERT INTO "contributions" (.+) VALUES (.+)`).
		WillReturnError(gorm.ErrDuplicatedKey)
	err := col.Add(ctx, pendingRecord())
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	mock.ExpectExec(`INSERT INTO "contributions" (.+) VALUES (.+)`).
		WillReturnError(errors.New("connection reset"))
	err = col.Add(ctx, pendingRecord())
	assert.ErrorIs(t, err, domain.ErrStore)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_Add_WritesTypedColumns(t *testing.T) {
	col, mock := newMockCollection(t)

	mock.ExpectExec(`INSERT INTO "contributions" \(.*"contributor_name".*"amount","currency","payment_method","status".*\) VALUES`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, col.Add(context.Background(), pendingRecord()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_Add_RejectsInvalidDocument(t *testing.T) {
	col, mock := newMockCollection(t)

	rec := pendingRecord()
	rec.Kind = "gift"
	err := col.Add(context.Background(), rec)
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_Get(t *testing.T) {
	col, mock := newMockCollection(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(recordRows(id, 3))

	rec, err := col.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, 3, rec.Version)
	assert.Equal(t, contribution.StatusPending, rec.Status)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(50)))

	mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE id = \$1`).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = col.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_List(t *testing.T) {
	col, mock := newMockCollection(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE "payment_method" = \$1 AND "program" = \$2 ORDER BY created_at asc`).
		WithArgs("card-gateway", "skills").
		WillReturnRows(recordRows(id, 1))

	docs, err := col.List(ctx, repository.Filter{"program": "skills", "paymentMethod": "card-gateway"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)

	_, err = col.List(ctx, repository.Filter{"contributorName": "Ada"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps version", func(t *testing.T) {
		col, mock := newMockCollection(t)
		rec := pendingRecord()
		rec.ID = uuid.New()
		rec.Version = 1

		mock.ExpectExec(`UPDATE "contributions" SET (.+) WHERE version = (.+)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, col.Save(ctx, rec))
		assert.Equal(t, 2, rec.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		col, mock := newMockCollection(t)
		rec := pendingRecord()
		rec.ID = uuid.New()
		rec.Version = 1

		mock.ExpectExec(`UPDATE "contributions" SET (.+) WHERE version = (.+)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE id = \$1`).
			WithArgs(rec.ID, 1).
			WillReturnRows(recordRows(rec.ID, 2))

		err := col.Save(ctx, rec)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 1, rec.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate reference", func(t *testing.T) {
		col, mock := newMockCollection(t)
		rec := pendingRecord()
		rec.ID = uuid.New()
		rec.Version = 1

		mock.ExpectExec(`UPDATE "contributions" SET (.+)`).
			WillReturnError(gorm.ErrDuplicatedKey)

		err := col.Save(ctx, rec)
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Equal(t, 1, rec.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCollection_Update_RejectsImmutableField(t *testing.T) {
	col, mock := newMockCollection(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "contributions" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(recordRows(id, 1))

	_, err := col.Update(context.Background(), id, repository.Patch{"status": "completed"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollection_Delete(t *testing.T) {
	col, mock := newMockCollection(t)
	ctx := context.Background()
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM "contributions" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, col.Delete(ctx, id))

	mock.ExpectExec(`DELETE FROM "contributions" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, col.Delete(ctx, id), domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
