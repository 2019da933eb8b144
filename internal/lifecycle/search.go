package lifecycle

import (
	"strings"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// StatusAll disables the status predicate
const StatusAll = "all"

// Criteria narrows a complaint list. An empty Status or "all" passes every
// status; an empty Text passes everything.
type Criteria struct {
	Status string
	Text   string
}

// Validate rejects a status filter that is neither "all" nor a known status
func (c Criteria) Validate() error {
	if c.Status == "" || c.Status == StatusAll {
		return nil
	}
	if !models.Status(c.Status).IsValid() {
		return &ValidationError{Field: "status", Message: "unknown status filter " + c.Status}
	}
	return nil
}

// Filter returns the complaints matching both the status and the text
// predicate, preserving input order. Text matches case-insensitively
// against title, ticket id and location.
func Filter(complaints []models.Complaint, criteria Criteria) []models.Complaint {
	term := strings.ToLower(strings.TrimSpace(criteria.Text))
	out := make([]models.Complaint, 0, len(complaints))
	for _, c := range complaints {
		if criteria.Status != "" && criteria.Status != StatusAll && string(c.Status) != criteria.Status {
			continue
		}
		if term != "" && !containsFold(term, c.Title, c.TicketID, c.Location) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FilterUsers matches text against full name, email and NIK
func FilterUsers(users []models.User, text string) []models.User {
	term := strings.ToLower(strings.TrimSpace(text))
	if term == "" {
		out := make([]models.User, len(users))
		copy(out, users)
		return out
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		nik := ""
		if u.NIK != nil {
			nik = *u.NIK
		}
		if containsFold(term, u.FullName, u.Email, nik) {
			out = append(out, u)
		}
	}
	return out
}

// CountRoles tallies accounts per role
func CountRoles(users []models.User) map[models.Role]int {
	counts := map[models.Role]int{
		models.RoleAdmin:   0,
		models.RolePetugas: 0,
		models.RoleWarga:   0,
	}
	for _, u := range users {
		counts[u.Role]++
	}
	return counts
}

func containsFold(lowerTerm string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerTerm) {
			return true
		}
	}
	return false
}
