package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"church-manager/internal/domain"
	"church-manager/internal/testutil"
)

func TestCreateThenSoftDeleteMinistry(t *testing.T) {
	ctx := context.Background()
	r := NewCrud[domain.Ministry](testutil.NewDB(t))

	created, err := r.Create(ctx, &domain.Ministry{Name: "Louvor"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.False(t, created.CreatedAt.IsZero())

	deleted, err := r.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Louvor", deleted.Name)
	assert.False(t, deleted.IsActive)
	assert.Equal(t, domain.LifecycleInactive, deleted.Lifecycle())

	// 行仍可按 id 取回
	again, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateMergesAndStampsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewCrud[domain.Ministry](testutil.NewDB(t), WithClock(func() time.Time { return clock }))

	m, err := r.Create(ctx, &domain.Ministry{Name: "Infantil", Description: "crianças"})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	name := "Ministério Infantil"
	got, err := r.Update(ctx, m.ID, (&domain.MinistryPatch{Name: &name}).Changes())
	require.NoError(t, err)
	assert.Equal(t, "Ministério Infantil", got.Name)
	assert.Equal(t, "crianças", got.Description)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	r := NewCrud[domain.Ministry](testutil.NewDB(t))

	_, err := r.Update(ctx, "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Deactivate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListIsDeterministic(t *testing.T) {
	ctx := context.Background()
	r := NewCrud[domain.Ministry](testutil.NewDB(t))

	for _, n := range []string{"Louvor", "Diaconia", "Louvor", "Acolhimento"} {
		_, err := r.Create(ctx, &domain.Ministry{Name: n})
		require.NoError(t, err)
	}

	first, err := r.List(ctx)
	require.NoError(t, err)
	second, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, first, second)

	names := make([]string, 0, len(first))
	for _, m := range first {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Acolhimento", "Diaconia", "Louvor", "Louvor"}, names)
	assert.Less(t, first[2].ID, first[3].ID)
}

func TestListScopes(t *testing.T) {
	ctx := context.Background()
	r := NewCrud[domain.Song](testutil.NewDB(t), OrderBy("title"))

	_, err := r.Create(ctx, &domain.Song{Title: "Castelo Forte", Category: domain.SongHymn})
	require.NoError(t, err)
	_, err = r.Create(ctx, &domain.Song{Title: "Aclame ao Senhor", Category: domain.SongPraise})
	require.NoError(t, err)

	hymns, err := r.List(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("category = ?", domain.SongHymn) })
	require.NoError(t, err)
	require.Len(t, hymns, 1)
	assert.Equal(t, "Castelo Forte", hymns[0].Title)
}

func TestDuplicateEmailMapsToErrDuplicate(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(testutil.NewDB(t))

	_, err := users.Create(ctx, &domain.User{Email: "pastor@igreja.org", PasswordHash: "x"})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Email: "pastor@igreja.org", PasswordHash: "y"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	u, err := users.FindByEmail(ctx, " PASTOR@igreja.org ")
	require.NoError(t, err)
	assert.Equal(t, "pastor@igreja.org", u.Email)
}

// 软删只能是 UPDATE，不允许出现 DELETE
func TestDeactivateIssuesUpdateNotDelete(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	now := time.Now()
	cols := []string{"id", "is_active", "created_at", "updated_at", "name", "description"}
	mock.ExpectQuery(`SELECT \* FROM "ministries"`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", true, now, now, "Louvor", ""))
	mock.ExpectExec(`UPDATE "ministries" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "ministries"`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("m1", false, now, now, "Louvor", ""))

	got, err := NewCrud[domain.Ministry](db).Deactivate(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
