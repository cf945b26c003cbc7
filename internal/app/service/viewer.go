package service

import "code_practice/internal/domain/model"

// Viewer is the authenticated caller. A zero Viewer is an anonymous request.
type Viewer struct {
	UserID string
	Role   string
}

func (v Viewer) IsTeacher() bool { return v.Role == model.RoleTeacher }

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
