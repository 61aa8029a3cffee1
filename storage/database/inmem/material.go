package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/studydesk/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateFile(_ context.Context, f material.File) (material.File, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f.Content = append([]byte{}, f.Content...)
	repo.db.table[f.ID] = &f
	return f, nil
}

func (repo *materialRepository) GetFile(_ context.Context, id string) (material.File, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.table[id]; ok {
		found := *f
		found.Content = append([]byte{}, f.Content...)
		return found, nil
	}
	return material.File{}, material.ErrNotFound
}

func (repo *materialRepository) QueryFiles(_ context.Context, ownerID, courseID string) ([]material.File, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	files := make([]material.File, 0)
	for _, f := range repo.db.table {
		if f.OwnerID != ownerID || (courseID != "" && f.CourseID != courseID) {
			continue
		}
		found := *f
		found.Content = nil
		files = append(files, found)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].UploadedAt.After(files[j].UploadedAt) })
	return files, nil
}

func (repo *materialRepository) DeleteFile(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
