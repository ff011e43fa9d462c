// Package sqlite stores family trees in a SQLite database.
package sqlite

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
)

// TreeRepository implements [store.Store] on a gorm connection.
type TreeRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the database file at path using the pure-Go driver.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path,
	}, &gorm.Config{})
}

// OpenStore opens path, migrates it and returns a ready store.
func OpenStore(ctx context.Context, path string) (*TreeRepository, error) {
	db, err := Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	if err := RunMigrations(ctx, db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "migrate %s", path)
	}
	return NewTreeRepository(db), nil
}

func NewTreeRepository(db *gorm.DB) *TreeRepository {
	return &TreeRepository{db: db, now: time.Now}
}

func (r *TreeRepository) List(ctx context.Context) ([]store.Summary, error) {
	rows := make([]TreeModel, 0)
	err := r.db.WithContext(ctx).
		Select("id", "name", "households", "members", "edge_count", "created_at", "updated_at").
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list trees")
	}
	result := make([]store.Summary, 0, len(rows))
	for _, m := range rows {
		result = append(result, m.summary())
	}
	return result, nil
}

func (r *TreeRepository) Get(ctx context.Context, id string) (family.Tree, error) {
	var m TreeModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return family.Tree{}, store.NotFound(id)
		}
		return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "get tree %s", id)
	}
	t, err := m.tree()
	if err != nil {
		return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "get tree %s", id)
	}
	return t, nil
}

func (r *TreeRepository) Create(ctx context.Context, name string) (family.Tree, error) {
	t, err := family.NewTree(name, family.DefaultRoot)
	if err != nil {
		return family.Tree{}, err
	}
	return r.Save(ctx, t)
}

func (r *TreeRepository) Save(ctx context.Context, t family.Tree) (family.Tree, error) {
	var saved family.Tree
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.ID != "" && t.CreatedAt.IsZero() {
			var existing TreeModel
			err := tx.Select("created_at").First(&existing, "id = ?", t.ID).Error
			switch {
			case err == nil:
				t.CreatedAt = existing.CreatedAt
			case !stderrors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		prepared, err := store.Prepare(t, r.now())
		if err != nil {
			return err
		}
		m, err := toModel(prepared)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
			return err
		}
		saved = prepared
		return nil
	})
	if err != nil {
		if errors.GetCode(err) != "" {
			return family.Tree{}, err
		}
		return family.Tree{}, errors.Wrap(errors.ErrCodeStorage, err, "save tree %s", t.Name)
	}
	return saved, nil
}

func (r *TreeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&TreeModel{}, "id = ?", id)
	if res.Error != nil {
		return errors.Wrap(errors.ErrCodeStorage, res.Error, "delete tree %s", id)
	}
	if res.RowsAffected == 0 {
		return store.NotFound(id)
	}
	return nil
}

func (r *TreeRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ store.Store = (*TreeRepository)(nil)
