package lifecycle

import (
	"errors"
	"testing"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() models.ComplaintSubmission {
	return models.ComplaintSubmission{
		Title:           "Jalan Berlubang",
		Description:     "Lubang besar di depan balai desa",
		CategoryID:      1,
		Location:        "RT 03 / RW 01",
		ReporterName:    "Siti",
		ReporterContact: "siti@example.com",
	}
}

var testCategories = []models.Category{
	{ID: 1, Name: "Infrastruktur Jalan", IsActive: true},
	{ID: 2, Name: "Sosial", IsActive: false},
}

func TestValidateSubmission(t *testing.T) {
	require.NoError(t, ValidateSubmission(validSubmission(), testCategories))

	tests := []struct {
		name  string
		edit  func(*models.ComplaintSubmission)
		field string
	}{
		{"missing title", func(s *models.ComplaintSubmission) { s.Title = "   " }, "title"},
		{"missing location", func(s *models.ComplaintSubmission) { s.Location = "" }, "location"},
		{"missing contact", func(s *models.ComplaintSubmission) { s.ReporterContact = "" }, "reporter_contact"},
		{"bad photo url", func(s *models.ComplaintSubmission) { u := "not a url"; s.PhotoURL = &u }, "photo_url"},
		{"unknown category", func(s *models.ComplaintSubmission) { s.CategoryID = 42 }, "category_id"},
		{"inactive category", func(s *models.ComplaintSubmission) { s.CategoryID = 2 }, "category_id"},
		{"zero category", func(s *models.ComplaintSubmission) { s.CategoryID = 0 }, "category_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSubmission()
			tt.edit(&in)
			err := ValidateSubmission(in, testCategories)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := &StoreUnavailableError{Op: "list complaints", Err: errors.New("connection refused")}
	assert.Equal(t, KindStoreUnavailable, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
