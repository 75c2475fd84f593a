package repository

import (
	"reflect"
	"testing"

	"github.com/amirasaad/charity/pkg/domain"
	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *contribution.Record {
	email := "a@x.com"
	return &contribution.Record{
		Entity:           domain.Entity{ID: uuid.New(), Version: 1},
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

func TestApplyPatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		patch   Patch
		wantErr string
	}{
		{"mutable field", Patch{"program": "sports"}, ""},
		{"immutable field", Patch{"amount": 10}, "amount: is not mutable"},
		{"status is not patchable", Patch{"status": "completed"}, "status: is not mutable"},
		{"unknown field", Patch{"color": "red"}, "color: is not a field of contributions"},
		{"wrong type", Patch{"program": 42}, "program: must be string"},
		{"empty patch", Patch{}, "patch is empty"},
		{"fails struct validation", Patch{"program": string(make([]byte, 101))}, "program: failed max=100"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := sampleRecord()
			err := ApplyPatch(ContributionSchema, rec, tc.patch)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "sports", rec.Program)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Equal(t, "skills", rec.Program)
		})
	}
}

func TestApplyPatch_DoesNotWriteThroughPointers(t *testing.T) {
	t.Parallel()

	v := &profile.Volunteer{Name: "Bo", Email: "bo@x.com", Skills: []string{"math", "art"}, Status: profile.VolunteerApplied}
	before := v.Skills
	require.NoError(t, ApplyPatch(VolunteerSchema, v, Patch{"skills": []string{"music"}}))
	assert.Equal(t, []string{"music"}, v.Skills)
	assert.Equal(t, []string{"math", "art"}, before)
}

func TestCheckFilter(t *testing.T) {
	t.Parallel()

	require.NoError(t, ContributionSchema.CheckFilter(Filter{"program": "skills", "paymentMethod": "card-gateway"}))
	err := ContributionSchema.CheckFilter(Filter{"contributorEmail": "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMatchesAndFieldString(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	assert.True(t, Matches(rec, Filter{"program": "skills", "status": "pending"}))
	assert.False(t, Matches(rec, Filter{"program": "sports"}))
	assert.False(t, Matches(rec, Filter{"providerTransactionReference": "ref"}))

	got, ok := FieldString(rec, "id")
	require.True(t, ok)
	assert.Equal(t, rec.ID.String(), got)

	got, ok = FieldString(rec, "amount")
	require.True(t, ok)
	assert.Equal(t, "50", got)
}

func TestFieldsAndGoField(t *testing.T) {
	t.Parallel()

	fields := Fields(reflect.TypeOf(contribution.Record{}))
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "version")
	assert.Contains(t, fields, "providerTransactionReference")

	name, ok := GoField(reflect.TypeOf(&contribution.Record{}), "contributorEmail")
	require.True(t, ok)
	assert.Equal(t, "ContributorEmail", name)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	rec := sampleRecord()
	require.NoError(t, Validate(rec))
	rec.Kind = "gift"
	err := Validate(rec)
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Field)
}
