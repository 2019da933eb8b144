package lifecycle

import (
	"sort"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// Summarize computes the dashboard aggregate.
//
// ByStatus always has all five statuses. ByCategory has one row per known
// category (zero counts included) plus one unnamed row per unknown
// category id seen in complaints, sorted by count descending then id
// ascending.
func Summarize(complaints []models.Complaint, categories []models.Category) models.DashboardSummary {
	byStatus := make(map[models.Status]int, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		byStatus[s] = 0
	}

	counts := make(map[int64]*models.CategoryCount, len(categories))
	for _, cat := range categories {
		counts[cat.ID] = &models.CategoryCount{CategoryID: cat.ID, Name: cat.Name}
	}

	for _, c := range complaints {
		byStatus[c.Status]++
		row, ok := counts[c.CategoryID]
		if !ok {
			row = &models.CategoryCount{CategoryID: c.CategoryID}
			counts[c.CategoryID] = row
		}
		row.Count++
	}

	ranking := make([]models.CategoryCount, 0, len(counts))
	for _, row := range counts {
		ranking = append(ranking, *row)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].CategoryID < ranking[j].CategoryID
	})

	return models.DashboardSummary{
		Total:      len(complaints),
		ByStatus:   byStatus,
		ByCategory: ranking,
	}
}

// Stats computes the public home page counters
func Stats(complaints []models.Complaint) models.PublicStats {
	stats := models.PublicStats{Total: len(complaints)}
	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusVerified, models.StatusInProgress:
			stats.InProgress++
		case models.StatusCompleted:
			stats.Completed++
		}
	}
	return stats
}

// Recent returns up to n complaints, newest first
func Recent(complaints []models.Complaint, n int) []models.Complaint {
	out := make([]models.Complaint, len(complaints))
	copy(out, complaints)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
