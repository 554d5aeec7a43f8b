package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alugserv/internal/domain"
	"alugserv/internal/repos"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, repos.Migrate(context.Background(), db))
}

func TestNewPageClamps(t *testing.T) {
	assert.Equal(t, repos.Page{Number: 1, PerPage: 100}, repos.NewPage(0, 1000))
	assert.Equal(t, repos.Page{Number: 3, PerPage: 1}, repos.NewPage(3, 0))
	assert.Equal(t, 24, repos.NewPage(3, 12).Offset())
}

func TestNewPaginationHasMore(t *testing.T) {
	for _, tc := range []struct {
		page, per, total int
		pages            int
		more             bool
	}{
		{1, 10, 0, 0, false},
		{1, 10, 10, 1, false},
		{1, 10, 11, 2, true},
		{2, 10, 11, 2, false},
		{5, 1, 6, 6, true},
	} {
		p := repos.NewPagination(repos.NewPage(tc.page, tc.per), tc.total)
		assert.Equal(t, tc.pages, p.TotalPages, "%+v", tc)
		assert.Equal(t, tc.more, p.HasMore, "%+v", tc)
		assert.Equal(t, tc.page*tc.per < tc.total, p.HasMore)
	}
}

func TestQueryCountSharesWhere(t *testing.T) {
	q := repos.From("equipments e").Where("e.status = ?", "active").Where("e.featured = ?", 1)
	sel, selArgs := q.Select("e.id", "e.name ASC")
	cnt, cntArgs := q.Count()
	assert.Equal(t, "SELECT e.id FROM equipments e WHERE e.status = ? AND e.featured = ? ORDER BY e.name ASC", sel)
	assert.Equal(t, "SELECT COUNT(*) FROM equipments e WHERE e.status = ? AND e.featured = ?", cnt)
	assert.Equal(t, selArgs, cntArgs)
}

func TestContainsEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%betoneira%", repos.Contains("betoneira"))
	assert.Equal(t, "%100!% a!_b!!%", repos.Contains("100% a_b!"))
}

func TestEquipmentPageAndDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	cats := repos.NewCategoryRepo(db)
	eqs := repos.NewEquipmentRepo(db)

	catID, err := cats.Insert(ctx, domain.Category{Name: "Betoneiras", Slug: "betoneiras", Status: domain.StatusActive})
	require.NoError(t, err)

	_, err = cats.Insert(ctx, domain.Category{Name: "Outra", Slug: "betoneiras", Status: domain.StatusActive})
	require.Error(t, err)
	assert.True(t, repos.IsDuplicate(err, "slug"))
	assert.False(t, repos.IsDuplicate(err, "email"))

	for i, name := range []string{"Betoneira 400L", "Betoneira 150L", "Betoneira 250L"} {
		status := domain.StatusActive
		if i == 2 {
			status = domain.StatusInactive
		}
		_, err := eqs.Insert(ctx, domain.Equipment{
			Name: name, Slug: "b" + string(rune('a'+i)), CategoryID: catID,
			PriceType: domain.PriceDaily, StockStatus: domain.StockAvailable, Status: status,
		})
		require.NoError(t, err)
	}

	items, pg, err := eqs.Page(ctx, repos.EquipmentFilter{Status: domain.StatusActive}, repos.NewPage(1, 1))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Betoneira 150L", items[0].Name)
	assert.Equal(t, 2, pg.Total)
	assert.True(t, pg.HasMore)
	require.NotNil(t, items[0].CategorySlug)
	assert.Equal(t, "betoneiras", *items[0].CategorySlug)

	n, err := cats.CountEquipments(ctx, catID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := cats.List(ctx, repos.CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].EquipmentCount)
}

func TestFileInUse(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	cats := repos.NewCategoryRepo(db)
	eqs := repos.NewEquipmentRepo(db)

	catImg := "/uploads/categories/obra.png"
	catID, err := cats.Insert(ctx, domain.Category{Name: "Obra", Slug: "obra", Image: &catImg, Status: domain.StatusActive})
	require.NoError(t, err)
	img := "/uploads/equipments/serra.png"
	_, err = eqs.Insert(ctx, domain.Equipment{
		Name: "Serra", Slug: "serra", CategoryID: catID, Image: &img,
		Gallery: domain.Gallery{"/uploads/equipments/serra_1.png"},
		PriceType: domain.PriceDaily, StockStatus: domain.StockAvailable, Status: domain.StatusActive,
	})
	require.NoError(t, err)

	for p, want := range map[string]bool{
		catImg:                            true,
		img:                               true,
		"/uploads/equipments/serra_1.png": true,
		"/uploads/equipments/serra_1.pn":  false,
		"/uploads/equipments/serra%1.png": false,
		"/uploads/equipments/outra.png":   false,
	} {
		used, err := eqs.FileInUse(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, want, used, p)
		used, err = cats.FileInUse(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, want, used, p)
	}
}

func TestSessionReplaceKeepsOneSession(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := repos.NewUserRepo(db)
	sessions := repos.NewSessionRepo(db)

	uid, err := users.Insert(ctx, db, domain.User{Username: "ana", Email: "ana@x.com", Hash: "h", Name: "Ana", Role: domain.RoleAdmin, Status: domain.StatusActive})
	require.NoError(t, err)

	exp := repos.FormatTime(time.Now().Add(time.Hour))
	require.NoError(t, sessions.Replace(ctx, domain.Session{Token: "t1", UserID: uid, ExpiresAt: exp}))
	require.NoError(t, sessions.Replace(ctx, domain.Session{Token: "t2", UserID: uid, ExpiresAt: exp}))

	n, err := sessions.CountForUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = sessions.User(ctx, "t1", time.Now())
	assert.True(t, repos.IsNotFound(err))
	u, err := sessions.User(ctx, "t2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.NotNil(t, u.LastLogin)

	_, err = sessions.User(ctx, "t2", time.Now().Add(2*time.Hour))
	assert.True(t, repos.IsNotFound(err))

	require.NoError(t, sessions.Delete(ctx, "t2"))
	require.NoError(t, sessions.Delete(ctx, "t2"))
}
