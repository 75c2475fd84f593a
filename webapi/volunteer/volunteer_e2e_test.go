package volunteer_test

import (
	"testing"

	"github.com/amirasaad/charity/pkg/domain/profile"
	"github.com/amirasaad/charity/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
)

type VolunteerE2ETestSuite struct {
	testutils.E2ETestSuite
}

func TestVolunteerE2ETestSuite(t *testing.T) {
	suite.Run(t, new(VolunteerE2ETestSuite))
}

func (s *VolunteerE2ETestSuite) TestApply() {
	status, raw := s.Request(fiber.MethodPost, "/volunteers", map[string]any{
		"name":   "Bola",
		"email":  "Bola@Example.org",
		"skills": []string{"football", "maths"},
	}, "")
	s.Require().Equal(fiber.StatusCreated, status, string(raw))
	var v profile.Volunteer
	s.Data(raw, &v)
	s.Equal("bola@example.org", v.Email)
	s.Equal(profile.VolunteerApplied, v.Status)

	sent := s.Env.Mailer.Sent()
	s.Require().Len(sent, 1)
	s.Equal([]string{"office@example.org"}, sent[0].To)

	status, _ = s.Request(fiber.MethodPost, "/volunteers", map[string]any{"name": "Bola", "email": "bola@example.org"}, "")
	s.Equal(fiber.StatusConflict, status)

	status, _ = s.Request(fiber.MethodPost, "/volunteers", map[string]any{"name": "No Mail"}, "")
	s.Equal(fiber.StatusBadRequest, status)
}

func (s *VolunteerE2ETestSuite) TestPortal() {
	ctx := s.T().Context()
	app := s.Env.App
	active, err := app.Beneficiaries.Create(ctx, &profile.Beneficiary{Name: "Musa", Age: 12, Active: true})
	s.Require().NoError(err)
	_, err = app.Beneficiaries.Create(ctx, &profile.Beneficiary{Name: "Ibrahim", Age: 17})
	s.Require().NoError(err)
	skill, err := app.Skills.Create(ctx, &profile.Skill{Name: "Tailoring"})
	s.Require().NoError(err)

	status, _ := s.Request(fiber.MethodGet, "/portal/boys", nil, "")
	s.Equal(fiber.StatusUnauthorized, status)

	for _, token := range []string{s.VolunteerToken, s.AdminToken} {
		status, raw := s.Request(fiber.MethodGet, "/portal/boys", nil, token)
		s.Require().Equal(fiber.StatusOK, status)
		var boys []profile.Beneficiary
		s.Data(raw, &boys)
		s.Require().Len(boys, 1)
		s.Equal(active.ID, boys[0].ID)
	}

	status, raw := s.Request(fiber.MethodGet, "/portal/skills", nil, s.VolunteerToken)
	s.Require().Equal(fiber.StatusOK, status)
	var skills []profile.Skill
	s.Data(raw, &skills)
	s.Len(skills, 1)

	status, raw = s.Request(fiber.MethodGet, "/portal/sessions", nil, s.VolunteerToken)
	s.Require().Equal(fiber.StatusOK, status)
	var sessions []profile.Session
	s.Data(raw, &sessions)
	s.Empty(sessions)

	status, raw = s.Request(fiber.MethodPost, "/portal/assessments",
		map[string]any{"beneficiaryId": active.ID, "skillId": skill.ID, "score": 65, "notes": "steady"}, s.VolunteerToken)
	s.Require().Equal(fiber.StatusCreated, status, string(raw))
	var a profile.Assessment
	s.Data(raw, &a)
	s.Equal(testutils.VolunteerEmail, a.AssessedBy)

	status, _ = s.Request(fiber.MethodPost, "/admin/skills", map[string]any{"name": "Sneaky"}, s.VolunteerToken)
	s.Equal(fiber.StatusForbidden, status)
}
