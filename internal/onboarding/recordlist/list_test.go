package recordlist

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"onboarding/internal/onboarding/models"
)

var experienceSchema = Schema[models.Experience]{
	New:      models.NewExperience,
	Complete: models.ExperienceComplete,
	Set:      models.SetExperienceField,
}

var educationSchema = Schema[models.Education]{
	New:      models.NewEducation,
	Complete: models.EducationComplete,
	Set:      models.SetEducationField,
}

type ListSuite struct {
	suite.Suite
	list *List[models.Experience]
}

func TestListSuite(t *testing.T) {
	suite.Run(t, new(ListSuite))
}

func (s *ListSuite) SetupTest() {
	s.list = New(experienceSchema)
}

func (s *ListSuite) fill(index int) {
	for _, kv := range [][2]string{
		{models.ExperienceCompany, "Acme"},
		{models.ExperiencePosition, "Eng"},
		{models.ExperienceStartDate, "2020-01-01"},
		{models.ExperienceCurrentlyWorking, "true"},
	} {
		ok, err := s.list.Update(index, kv[0], kv[1])
		s.Require().NoError(err)
		s.Require().True(ok)
	}
}

func (s *ListSuite) TestStartsWithOneBlankRecord() {
	s.Equal(1, s.list.Len())
	s.Equal(models.NewExperience(), s.list.Items()[0])
}

func (s *ListSuite) TestAddDisabledUntilLastRecordComplete() {
	s.False(s.list.CanAdd())
	s.False(s.list.Add())
	s.Equal(1, s.list.Len())

	s.fill(0)

	s.True(s.list.CanAdd())
	s.True(s.list.Add())
	s.Equal(2, s.list.Len())
	s.Equal(models.NewExperience(), s.list.Items()[1], "appended record is all-default")
	s.False(s.list.CanAdd(), "the new blank record gates the next add")
}

func (s *ListSuite) TestDeleteNeverDropsBelowOne() {
	s.False(s.list.CanDelete())
	s.False(s.list.Delete())
	s.Equal(1, s.list.Len())

	s.fill(0)
	s.Require().True(s.list.Add())
	s.True(s.list.Delete())
	s.Equal(1, s.list.Len())
	s.Equal("Acme", s.list.Items()[0].Company, "delete removes the last record")

	s.False(s.list.Delete())
	s.Equal(1, s.list.Len())
}

func (s *ListSuite) TestUpdateOutOfBoundsIsSilentNoOp() {
	for _, idx := range []int{-1, 1, 99} {
		ok, err := s.list.Update(idx, models.ExperienceCompany, "Acme")
		s.NoError(err)
		s.False(ok)
	}
	s.Equal(models.NewExperience(), s.list.Items()[0])
}

func (s *ListSuite) TestUpdateUnknownFieldReturnsError() {
	ok, err := s.list.Update(0, "salary", "1")
	s.Error(err)
	s.False(ok)
}

func (s *ListSuite) TestUpdateLeavesOtherRecordsAndSnapshotsUntouched() {
	s.fill(0)
	s.Require().True(s.list.Add())
	before := s.list.Items()
	first := before[0]

	ok, err := s.list.Update(1, models.ExperienceCompany, "Globex")
	s.Require().NoError(err)
	s.Require().True(ok)

	after := s.list.Items()
	s.Equal(first, after[0], "records at other indices are structurally unchanged")
	s.Equal("Globex", after[1].Company)
	s.Equal(models.Experience{Company: "Globex"}, after[1], "only the named field changed")
	s.Equal("", before[1].Company, "earlier snapshot is not mutated")
}

func (s *ListSuite) TestCurrentlyWorkingToggle() {
	_, err := s.list.Update(0, models.ExperienceCurrentlyWorking, "true")
	s.Require().NoError(err)
	s.Equal(models.PresentEndDate, s.list.Items()[0].EndDate)

	_, err = s.list.Update(0, models.ExperienceCurrentlyWorking, "false")
	s.Require().NoError(err)
	s.Equal("", s.list.Items()[0].EndDate)
}

func TestAddNeverReducesLength(t *testing.T) {
	l := New(educationSchema)
	for i := 0; i < 5; i++ {
		before := l.Len()
		l.Add()
		assert.GreaterOrEqual(t, l.Len(), before)
		_, _ = l.Update(l.Len()-1, models.EducationInstitution, "MIT")
		_, _ = l.Update(l.Len()-1, models.EducationCourse, "CS")
		_, _ = l.Update(l.Len()-1, models.EducationYears, "4")
	}
	assert.Equal(t, 5, l.Len())
}

func TestEmptyListAlwaysAllowsAdd(t *testing.T) {
	l := Empty(educationSchema)
	assert.Equal(t, 0, l.Len())
	assert.True(t, l.CanAdd())
	assert.False(t, l.Delete())

	assert.True(t, l.Add())
	assert.Equal(t, 1, l.Len())
}

func TestAt(t *testing.T) {
	l := New(educationSchema)
	_, ok := l.At(0)
	assert.True(t, ok)
	_, ok = l.At(1)
	assert.False(t, ok)
}

func TestEditorInterface(t *testing.T) {
	var e Editor = New(educationSchema)
	assert.Equal(t, 1, e.Len())
	assert.False(t, e.CanAdd())
}

func TestJSONKeepsSchema(t *testing.T) {
	l := New(educationSchema)
	_, err := l.Update(0, models.EducationInstitution, "MIT")
	require.NoError(t, err)

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"institution":"MIT","course":"","years":"","outcome":""}]`, string(data))

	restored := New(educationSchema)
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, l.Items(), restored.Items())
	assert.False(t, restored.CanAdd(), "completeness predicate survives decoding")
}

func TestJSONEmptyArrayReseeds(t *testing.T) {
	for _, data := range []string{`[]`, `null`} {
		t.Run(data, func(t *testing.T) {
			l := New(educationSchema)
			require.NoError(t, json.Unmarshal([]byte(data), l))
			assert.Equal(t, []models.Education{models.NewEducation()}, l.Items())
			assert.False(t, l.CanAdd())
			assert.False(t, l.CanDelete())
		})
	}
}
