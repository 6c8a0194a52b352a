package dummybackend

import (
	"context"

	"github.com/google/uuid"

	"github.com/kampala/campushub/core/auth"
)

type profileRepository struct {
	db *DB
}

var _ auth.ProfileRepository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) auth.ProfileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfileBySubject(ctx context.Context, subjectID string) (auth.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if prof, ok := repo.db.profiles[subjectID]; ok {
		return *prof, nil
	}
	return auth.Profile{}, auth.ErrProfileNotFound
}

func (repo *profileRepository) GetProfileBySubjectAndRole(ctx context.Context, subjectID, role string) (auth.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if prof, ok := repo.db.profiles[subjectID]; ok && prof.Role == role {
		return *prof, nil
	}
	return auth.Profile{}, auth.ErrProfileNotFound
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof auth.Profile) (auth.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.profiles[prof.SubjectID]; ok {
		return auth.Profile{}, auth.ErrProfileExists
	}
	prof.ID = uuid.New().String()
	repo.db.profiles[prof.SubjectID] = &prof
	return prof, nil
}

// CountProfiles returns the number of stored profiles; test helper.
func (db *DB) CountProfiles() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.profiles)
}
