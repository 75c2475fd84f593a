package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
	"github.com/amirasaad/charity/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(program string) *contribution.Record {
	email := "a@x.com"
	return &contribution.Record{
		ContributorEmail: &email,
		Kind:             contribution.KindDonation,
		Program:          program,
		Amount:           decimal.NewFromInt(50),
		Currency:         "USD",
		PaymentMethod:    contribution.MethodCard,
		Status:           contribution.StatusPending,
	}
}

func TestCollection_CRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := NewCollection[contribution.Record](repository.ContributionSchema)

	rec := newRecord("skills")
	require.NoError(t, col.Add(ctx, rec))
	require.NotEqual(t, uuid.Nil, rec.ID)

	got, err := col.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "skills", got.Program)

	// Mutating a returned copy must not change the stored document.
	*got.ContributorEmail = "changed@x.com"
	again, err := col.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", again.Email())

	updated, err := col.Update(ctx, rec.ID, repository.Patch{"program": "sports"})
	require.NoError(t, err)
	assert.Equal(t, "sports", updated.Program)
	assert.Equal(t, 2, updated.Version)

	require.NoError(t, col.Delete(ctx, rec.ID))
	_, err = col.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, col.Delete(ctx, rec.ID), domain.ErrNotFound)
}

func TestCollection_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := NewCollection[contribution.Record](repository.ContributionSchema)

	for _, p := range []string{"skills", "sports", "skills"} {
		require.NoError(t, col.Add(ctx, newRecord(p)))
	}

	all, err := col.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	skills, err := col.List(ctx, repository.Filter{"program": "skills"})
	require.NoError(t, err)
	assert.Len(t, skills, 2)

	_, err = col.List(ctx, repository.Filter{"message": "hi"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCollection_SaveVersionCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := NewCollection[contribution.Record](repository.ContributionSchema)

	rec := newRecord("skills")
	require.NoError(t, col.Add(ctx, rec))

	first, _ := col.Get(ctx, rec.ID)
	second, _ := col.Get(ctx, rec.ID)

	first.Status = contribution.StatusFailed
	require.NoError(t, col.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Status = contribution.StatusCompleted
	err := col.Save(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, _ := col.Get(ctx, rec.ID)
	assert.Equal(t, contribution.StatusFailed, stored.Status)
}

func TestCollection_UniqueReference(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := NewCollection[contribution.Record](repository.ContributionSchema)

	a, b := newRecord("skills"), newRecord("skills")
	require.NoError(t, col.Add(ctx, a))
	require.NoError(t, col.Add(ctx, b))

	ref := "ref123"
	a.ProviderTransactionReference = &ref
	require.NoError(t, col.Save(ctx, a))

	b.ProviderTransactionReference = &ref
	err := col.Save(ctx, b)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCollection_ConcurrentSavesOnlyOneWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	col := NewCollection[contribution.Record](repository.ContributionSchema)
	rec := newRecord("skills")
	require.NoError(t, col.Add(ctx, rec))

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		doc, err := col.Get(ctx, rec.ID)
		require.NoError(t, err)
		wg.Add(1)
		go func(doc *contribution.Record) {
			defer wg.Done()
			doc.Status = contribution.StatusCompleted
			if col.Save(ctx, doc) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(doc)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStore_ExportKeepsHiddenFieldsOutOfJSON(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Users.Add(ctx, &user.User{Email: "admin@ngo.org", PasswordHash: "hash", Role: user.RoleAdmin}))
	require.NoError(t, store.Beneficiaries.Add(ctx, &profile.Beneficiary{Name: "Sam", Age: 12}))

	u, err := store.Users.List(ctx, repository.Filter{"email": "admin@ngo.org"})
	require.NoError(t, err)
	require.Len(t, u, 1)
	assert.Equal(t, "hash", u[0].PasswordHash)

	export, err := store.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, export, "boys")
	assert.Contains(t, export, "contributions")

	raw, err := json.Marshal(export)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"hash"`)
	assert.Contains(t, string(raw), `"Sam"`)
}
