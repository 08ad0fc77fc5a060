package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Registry manages projects and monitors.
type Registry struct {
	db     *gorm.DB
	bounds IntervalBounds
}

// ProjectUpdate carries the owner-mutable project fields. Nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	IsPublic    *bool
}

// MonitorUpdate carries the owner-mutable monitor fields. Nil fields are left unchanged.
type MonitorUpdate struct {
	Name             *string
	TargetURL        *string
	CheckIntervalSec *int
	IsActive         *bool
}

// NewRegistry creates a registry backed by s that enforces bounds on monitor intervals.
func NewRegistry(s *Storage, bounds IntervalBounds) *Registry {
	return &Registry{db: s.DB(), bounds: bounds}
}

// CreateProject validates and inserts p, assigning a new ID.
func (r *Registry) CreateProject(ctx context.Context, p *Project) error {
	if err := ValidateProject(p); err != nil {
		return err
	}
	p.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	log.Info().Str("project_id", p.ID).Str("owner_id", p.OwnerID).Msg("Project created")
	return nil
}

// GetProject returns the project with id or ErrNotFound.
func (r *Registry) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load project %s: %w", id, err)
	}
	return &p, nil
}

// GetOwnedProject returns the project only if ownerID owns it; otherwise ErrNotFound.
func (r *Registry) GetOwnedProject(ctx context.Context, ownerID, id string) (*Project, error) {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return p, nil
}

// SetProjectActive updates the project's active flag.
//
// Deactivating a project also deactivates every monitor it owns, in the same
// transaction. Reactivating a project leaves monitor flags untouched.
func (r *Registry) SetProjectActive(ctx context.Context, id string, active bool) (*Project, error) {
	return r.UpdateProject(ctx, id, ProjectUpdate{IsActive: &active})
}

// UpdateProject applies upd to the project with id and re-validates it.
// Deactivation cascades to the project's monitors as in SetProjectActive.
func (r *Registry) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error) {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = upd.Description
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if upd.IsPublic != nil {
		p.IsPublic = *upd.IsPublic
	}

	if err := ValidateProject(p); err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if p.IsActive {
			return nil
		}
		return tx.Model(&Monitor{}).Where("project_id = ?", id).Update("is_active", false).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", id, err)
	}

	log.Info().
		Str("project_id", id).
		Bool("active", p.IsActive).
		Bool("public", p.IsPublic).
		Msg("Project updated")
	return p, nil
}

// ListOwnedProjects returns a page of ownerID's projects ordered by creation.
func (r *Registry) ListOwnedProjects(ctx context.Context, ownerID string, offset, limit int) ([]Project, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}

	var projects []Project
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects for owner %s: %w", ownerID, err)
	}
	return projects, nil
}

// CountOwnedProjects returns how many projects ownerID has.
func (r *Registry) CountOwnedProjects(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Project{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count projects for owner %s: %w", ownerID, err)
	}
	return count, nil
}

// SetProjectsActive flips the active flag of every project in ids.
//
// All ids must be owned by ownerID, otherwise nothing is changed and
// ErrForbidden is returned. Deactivation cascades to the projects' monitors.
// It reports the number of projects updated.
func (r *Registry) SetProjectsActive(ctx context.Context, ownerID string, ids []string, active bool) (int64, error) {
	idList := uniqueIDs(ids)
	if len(idList) == 0 {
		return 0, NewValidationError("ids", "project list cannot be empty")
	}

	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Project{}).
			Where("id IN ? AND owner_id = ?", idList, ownerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(idList)) {
			return ErrForbidden
		}

		res := tx.Model(&Project{}).Where("id IN ?", idList).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected

		if active {
			return nil
		}
		return tx.Model(&Monitor{}).Where("project_id IN ?", idList).Update("is_active", false).Error
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to set projects active=%t: %w", active, err)
	}

	log.Info().Int64("count", updated).Bool("active", active).Msg("Projects status changed")
	return updated, nil
}

// CreateMonitor validates and inserts m under its project, assigning a new ID.
func (r *Registry) CreateMonitor(ctx context.Context, m *Monitor) error {
	if err := ValidateMonitor(m, r.bounds); err != nil {
		return err
	}
	if _, err := r.GetProject(ctx, m.ProjectID); err != nil {
		return err
	}
	m.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	log.Info().
		Str("monitor_id", m.ID).
		Str("project_id", m.ProjectID).
		Str("target_url", m.TargetURL).
		Int("interval_sec", m.CheckIntervalSec).
		Msg("Monitor created")
	return nil
}

// GetMonitor returns the monitor with id or ErrNotFound.
func (r *Registry) GetMonitor(ctx context.Context, id string) (*Monitor, error) {
	var m Monitor
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load monitor %s: %w", id, err)
	}
	return &m, nil
}

// GetOwnedMonitor returns the monitor only if its project belongs to ownerID.
// Monitors owned by someone else are reported as ErrNotFound.
func (r *Registry) GetOwnedMonitor(ctx context.Context, ownerID, id string) (*Monitor, error) {
	m, err := r.GetMonitor(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.GetOwnedProject(ctx, ownerID, m.ProjectID); err != nil {
		return nil, err
	}
	return m, nil
}

// UpdateMonitor applies upd to the monitor with id and re-validates it.
func (r *Registry) UpdateMonitor(ctx context.Context, id string, upd MonitorUpdate) (*Monitor, error) {
	m, err := r.GetMonitor(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.TargetURL != nil {
		m.TargetURL = *upd.TargetURL
	}
	if upd.CheckIntervalSec != nil {
		m.CheckIntervalSec = *upd.CheckIntervalSec
	}
	if upd.IsActive != nil {
		m.IsActive = *upd.IsActive
	}

	if err := ValidateMonitor(m, r.bounds); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("failed to update monitor %s: %w", id, err)
	}

	log.Info().Str("monitor_id", id).Bool("active", m.IsActive).Msg("Monitor updated")
	return m, nil
}

// ListProjectMonitors returns a page of the project's monitors ordered by creation.
func (r *Registry) ListProjectMonitors(ctx context.Context, projectID string, offset, limit int) ([]Monitor, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}

	var monitors []Monitor
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&monitors).Error; err != nil {
		return nil, fmt.Errorf("failed to list monitors for project %s: %w", projectID, err)
	}
	return monitors, nil
}

// CountProjectMonitors returns how many monitors the project has.
func (r *Registry) CountProjectMonitors(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Monitor{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count monitors for project %s: %w", projectID, err)
	}
	return count, nil
}

// SetMonitorsActive flips the active flag of every monitor in ids.
//
// All ids must belong to projects owned by ownerID, otherwise nothing is
// changed and ErrForbidden is returned. It reports the number of rows updated.
func (r *Registry) SetMonitorsActive(ctx context.Context, ownerID string, ids []string, active bool) (int64, error) {
	idList := uniqueIDs(ids)
	if len(idList) == 0 {
		return 0, NewValidationError("ids", "monitor list cannot be empty")
	}

	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&Project{}).Select("id").Where("owner_id = ?", ownerID)

		var count int64
		if err := tx.Model(&Monitor{}).
			Where("id IN ? AND project_id IN (?)", idList, owned).
			Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(idList)) {
			return ErrForbidden
		}

		res := tx.Model(&Monitor{}).Where("id IN ?", idList).Update("is_active", active)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to set monitors active=%t: %w", active, err)
	}

	log.Info().Int64("count", updated).Bool("active", active).Msg("Monitors status changed")
	return updated, nil
}

// ListActiveMonitors returns every monitor that is active and belongs to an active project.
func (r *Registry) ListActiveMonitors(ctx context.Context) ([]Monitor, error) {
	activeProjects := r.db.Model(&Project{}).Select("id").Where("is_active = ?", true)

	var monitors []Monitor
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND project_id IN (?)", true, activeProjects).
		Find(&monitors).Error; err != nil {
		return nil, fmt.Errorf("failed to list active monitors: %w", err)
	}
	return monitors, nil
}

// publicProjects selects projects visible without authentication.
func (r *Registry) publicProjects(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&Project{}).Where("is_public = ? AND is_active = ?", true, true)
}

// ListPublicProjects returns a page of the public, active projects ordered by creation.
func (r *Registry) ListPublicProjects(ctx context.Context, offset, limit int) ([]Project, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}

	var projects []Project
	if err := r.publicProjects(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list public projects: %w", err)
	}
	return projects, nil
}

// CountPublicProjects returns how many public, active projects exist.
func (r *Registry) CountPublicProjects(ctx context.Context) (int64, error) {
	var count int64
	if err := r.publicProjects(ctx).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count public projects: %w", err)
	}
	return count, nil
}

// GetPublicProject returns the project if it is public and active; otherwise ErrNotFound.
func (r *Registry) GetPublicProject(ctx context.Context, id string) (*Project, error) {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublic || !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListPublicMonitors returns a page of the active monitors of a public project.
func (r *Registry) ListPublicMonitors(ctx context.Context, projectID string, offset, limit int) ([]Monitor, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}

	var monitors []Monitor
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&monitors).Error; err != nil {
		return nil, fmt.Errorf("failed to list public monitors for project %s: %w", projectID, err)
	}
	return monitors, nil
}

// CountPublicMonitors returns how many active monitors the project has.
func (r *Registry) CountPublicMonitors(ctx context.Context, projectID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Monitor{}).
		Where("project_id = ? AND is_active = ?", projectID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count public monitors for project %s: %w", projectID, err)
	}
	return count, nil
}

// GetPublicMonitor returns the monitor if it is active and its project is
// public and active; otherwise ErrNotFound.
func (r *Registry) GetPublicMonitor(ctx context.Context, id string) (*Monitor, error) {
	m, err := r.GetMonitor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsActive {
		return nil, ErrNotFound
	}
	if _, err := r.GetPublicProject(ctx, m.ProjectID); err != nil {
		return nil, err
	}
	return m, nil
}

func validatePage(offset, limit int) error {
	if offset < 0 {
		return NewValidationError("skip", "cannot be negative")
	}
	return ValidateLimit(limit)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
