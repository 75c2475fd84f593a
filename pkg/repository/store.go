package repository

import (
	"context"

	"github.com/amirasaad/charity/pkg/domain/contribution"
	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/pkg/domain/user"
)

// Store groups every collection behind one handle. It is the only owner of
// persisted state.
type Store struct {
	Contributions Collection[contribution.Record]
	Users         Collection[user.User]
	Beneficiaries Collection[profile.Beneficiary]
	Volunteers    Collection[profile.Volunteer]
	Media         Collection[profile.MediaAsset]
	Assessments   Collection[profile.Assessment]
	Sessions      Collection[profile.Session]
	Skills        Collection[profile.Skill]
	Audit         Collection[profile.AuditEntry]
}

// Export returns every document grouped by collection name.
func (s *Store) Export(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any, 9)
	steps := []func() error{
		exportInto(ctx, out, s.Contributions),
		exportInto(ctx, out, s.Users),
		exportInto(ctx, out, s.Beneficiaries),
		exportInto(ctx, out, s.Volunteers),
		exportInto(ctx, out, s.Media),
		exportInto(ctx, out, s.Assessments),
		exportInto(ctx, out, s.Sessions),
		exportInto(ctx, out, s.Skills),
		exportInto(ctx, out, s.Audit),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func exportInto[T any](ctx context.Context, out map[string]any, c Collection[T]) func() error {
	return func() error {
		if c == nil {
			return nil
		}
		docs, err := c.List(ctx, nil)
		if err != nil {
			return err
		}
		if docs == nil {
			docs = []*T{}
		}
		out[c.Schema().Name] = docs
		return nil
	}
}
