package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentRoundTrip(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Betoneiras")

	body := `{"name":"Betoneira 400 Litros","category_id":` + itoa(catID) + `,
		"price":"150,5","price_type":"daily","featured":"on",
		"gallery":"[\"/uploads/a.jpg\",\"/uploads/b.jpg\"]",
		"specs":{"Motor":"2 HP","Capacidade":"400 L","Voltagem":"220 V"}}`
	req := httptest.NewRequest("POST", "/api/equipments.php", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r := e.send(req, tok)
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	assert.Equal(t, "Equipment created", r.Body.Get("message").String())
	id := r.Body.Get("id").Int()

	got := e.call("GET", "/api/equipments?slug=betoneira-400-litros", "", nil)
	require.Equal(t, http.StatusOK, got.Status, got.Raw)
	eq := got.Body.Get("equipment")
	assert.Equal(t, id, eq.Get("id").Int())
	assert.Equal(t, "Betoneiras", eq.Get("category_name").String())
	assert.Equal(t, "betoneiras", eq.Get("category_slug").String())
	assert.InDelta(t, 150.5, eq.Get("price").Float(), 0.001)
	assert.True(t, eq.Get("featured").Bool())
	assert.Equal(t, []any{"/uploads/a.jpg", "/uploads/b.jpg"}, eq.Get("gallery").Value())
	assert.Equal(t, `{"Motor":"2 HP","Capacidade":"400 L","Voltagem":"220 V"}`, eq.Get("specs").Raw)

	r = e.call("PUT", "/api/equipments?id="+itoa(id), tok, map[string]any{"price": "", "featured": false})
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	got = e.call("GET", "/api/equipments?id="+itoa(id), tok, nil)
	eq = got.Body.Get("equipment")
	assert.Equal(t, "null", eq.Get("price").Raw)
	assert.False(t, eq.Get("featured").Bool())
	assert.Equal(t, "Betoneira 400 Litros", eq.Get("name").String())
	assert.Len(t, eq.Get("specs").Map(), 3)
}

func TestEquipmentViewsCount(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Geradores")
	id := e.equipment(tok, map[string]any{"name": "Gerador 5kVA", "category_id": catID})

	var views []int64
	for i := 0; i < 3; i++ {
		r := e.call("GET", "/api/equipments?id="+itoa(id), "", nil)
		require.Equal(t, http.StatusOK, r.Status)
		views = append(views, r.Body.Get("equipment.views").Int())
	}
	assert.Equal(t, []int64{0, 1, 2}, views)
}

func TestEquipmentVisibility(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Andaimes")
	e.equipment(tok, map[string]any{"name": "Andaime Tubular", "category_id": catID})
	e.equipment(tok, map[string]any{"name": "Andaime Velho", "category_id": catID, "status": "inactive"})

	r := e.call("GET", "/api/equipments", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.EqualValues(t, 1, r.Body.Get("pagination.total").Int())

	r = e.call("GET", "/api/equipments", tok, nil)
	assert.EqualValues(t, 2, r.Body.Get("pagination.total").Int())

	r = e.call("GET", "/api/equipments?status=inactive", tok, nil)
	require.Len(t, r.Body.Get("equipments").Array(), 1)
	assert.Equal(t, "Andaime Velho", r.Body.Get("equipments.0.name").String())

	r = e.call("GET", "/api/equipments?slug=andaime-velho", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "Equipment not found", r.Body.Get("message").String())

	r = e.call("GET", "/api/equipments?category=andaimes", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "andaimes", r.Body.Get("category.slug").String())
	assert.Len(t, r.Body.Get("equipments").Array(), 1)

	r = e.call("GET", "/api/equipments?category=nao-existe", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "null", r.Body.Get("category").Raw)
	assert.Equal(t, "[]", r.Body.Get("equipments").Raw)
	assert.EqualValues(t, 0, r.Body.Get("pagination.total").Int())

	r = e.call("GET", "/api/equipments?search=%20tubular%20", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "tubular", r.Body.Get("search_term").String())
	assert.Len(t, r.Body.Get("equipments").Array(), 1)
}

func TestEquipmentSearchIsLiteral(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Ferramentas")
	e.equipment(tok, map[string]any{"name": "Lixadeira 100% elétrica", "category_id": catID})
	e.equipment(tok, map[string]any{"name": "Serra_Copo", "category_id": catID})
	e.equipment(tok, map[string]any{"name": "Furadeira", "category_id": catID})

	for term, want := range map[string]int{"%25": 1, "_": 1, "100%25": 1, "ira_1": 0} {
		r := e.call("GET", "/api/equipments?search="+term, "", nil)
		require.Equal(t, http.StatusOK, r.Status, r.Raw)
		assert.Len(t, r.Body.Get("equipments").Array(), want, term)
	}
}

func TestEquipmentPaginationClamps(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Serras")
	for _, n := range []string{"Serra Mármore", "Serra Circular", "Serra de Bancada"} {
		e.equipment(tok, map[string]any{"name": n, "category_id": catID})
	}

	r := e.call("GET", "/api/equipments?per_page=1000&page=0", "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.EqualValues(t, 100, r.Body.Get("pagination.per_page").Int())
	assert.EqualValues(t, 1, r.Body.Get("pagination.page").Int())
	assert.False(t, r.Body.Get("pagination.has_more").Bool())

	r = e.call("GET", "/api/equipments?per_page=2&page=1", "", nil)
	assert.Len(t, r.Body.Get("equipments").Array(), 2)
	assert.EqualValues(t, 2, r.Body.Get("pagination.total_pages").Int())
	assert.True(t, r.Body.Get("pagination.has_more").Bool())

	r = e.call("GET", "/api/equipments?per_page=2&page=2", "", nil)
	assert.Len(t, r.Body.Get("equipments").Array(), 1)
	assert.False(t, r.Body.Get("pagination.has_more").Bool())
}

func TestEquipmentValidation(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Bombas")

	cases := []struct {
		body map[string]any
		msg  string
	}{
		{map[string]any{"category_id": catID}, "name is required"},
		{map[string]any{"name": "Bomba"}, "category_id is required"},
		{map[string]any{"name": "Bomba", "category_id": 999}, "Category not found"},
		{map[string]any{"name": "Bomba", "category_id": "abc"}, "category_id must be an integer"},
		{map[string]any{"name": "Bomba", "category_id": catID, "price": "-1"}, "price cannot be negative"},
		{map[string]any{"name": "Bomba", "category_id": catID, "specs": "[1,2]"}, "specs"},
	}
	for _, tc := range cases {
		r := e.call("POST", "/api/equipments", tok, tc.body)
		assert.Equal(t, http.StatusBadRequest, r.Status, r.Raw)
		assert.Contains(t, r.Body.Get("message").String(), tc.msg)
	}

	req := httptest.NewRequest("POST", "/api/equipments", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	r := e.send(req, tok)
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "invalid JSON body", r.Body.Get("message").String())

	r = e.call("PUT", "/api/equipments?id=abc", tok, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "id must be a positive integer", r.Body.Get("message").String())

	r = e.call("PUT", "/api/equipments?id=404", tok, map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, r.Status)
}

func TestEquipmentImageUpload(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	catID := e.category(tok, "Compactadores")

	r := e.multipartCall("POST", "/api/equipments", tok,
		map[string]string{"name": "Compactador de Solo", "category_id": itoa(catID), "featured": "1"},
		map[string][]byte{"sapo.png": pngHeader})
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	id := r.Body.Get("id").Int()

	got := e.call("GET", "/api/equipments?id="+itoa(id), "", nil)
	img := got.Body.Get("equipment.image").String()
	require.True(t, strings.HasPrefix(img, "/uploads/equipments/"), img)
	assert.True(t, strings.HasSuffix(img, ".png"))
	assert.True(t, got.Body.Get("equipment.featured").Bool())

	stored := filepath.Join(e.cfg.UploadDir, "equipments", filepath.Base(img))
	_, err := os.Stat(stored)
	require.NoError(t, err)

	served := e.call("GET", img, "", nil)
	assert.Equal(t, http.StatusOK, served.Status)

	r = e.call("DELETE", "/api/equipments?id="+itoa(id), tok, nil)
	require.Equal(t, http.StatusOK, r.Status)
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	r = e.multipartCall("POST", "/api/equipments", tok,
		map[string]string{"name": "Script", "category_id": itoa(catID)},
		map[string][]byte{"shell.php": []byte("<?php echo 1;")})
	assert.Equal(t, http.StatusBadRequest, r.Status)
}

func TestCategoryCRUD(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")

	parent := e.category(tok, "Ferramentas Elétricas")
	r := e.call("GET", "/api/categories?id="+itoa(parent), "", nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "ferramentas-eletricas", r.Body.Get("category.slug").String())

	r = e.call("POST", "/api/categories", tok, map[string]any{"name": "Furadeiras", "parent_id": parent})
	require.Equal(t, http.StatusCreated, r.Status, r.Raw)
	child := r.Body.Get("id").Int()

	r = e.call("GET", "/api/categories?parent="+itoa(parent), "", nil)
	require.Len(t, r.Body.Get("categories").Array(), 1)
	assert.Equal(t, child, r.Body.Get("categories.0.id").Int())

	r = e.call("GET", "/api/categories?parent=-2", "", nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r = e.call("PUT", "/api/categories?id="+itoa(child), tok, map[string]any{"parent_id": child})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "a category cannot be its own parent", r.Body.Get("message").String())

	r = e.call("POST", "/api/categories", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "name is required", r.Body.Get("message").String())

	r = e.call("PUT", "/api/categories?id="+itoa(child), tok, map[string]any{"status": "inactive"})
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	r = e.call("GET", "/api/categories?slug=furadeiras", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	r = e.call("GET", "/api/categories?status=inactive", "", nil)
	assert.Len(t, r.Body.Get("categories").Array(), 1)

	e.equipment(tok, map[string]any{"name": "Furadeira de Impacto", "category_id": parent})
	r = e.call("DELETE", "/api/categories.php?id="+itoa(parent), tok, nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "Cannot delete: 1 equipment(s) in this category", r.Body.Get("message").String())

	r = e.call("DELETE", "/api/categories?id="+itoa(child), tok, nil)
	assert.Equal(t, http.StatusOK, r.Status, r.Raw)
	assert.Equal(t, "Category deleted", r.Body.Get("message").String())
}

func TestDashboardAndSync(t *testing.T) {
	e := newEnv(t)
	tok := e.admin("admin")
	e.category(tok, "Betoneiras")
	geral := e.category(tok, "Geral")
	e.equipment(tok, map[string]any{"name": "Betoneira 400L", "category_id": geral})
	e.equipment(tok, map[string]any{"name": "Caixa de ferramentas", "category_id": geral, "status": "inactive"})

	r := e.call("GET", "/api/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	assert.EqualValues(t, 2, r.Body.Get("totalEquipments").Int())
	assert.EqualValues(t, 1, r.Body.Get("availableEquipments").Int())
	assert.EqualValues(t, 2, r.Body.Get("totalCategories").Int())
	assert.EqualValues(t, 0, r.Body.Get("totalContacts").Int())
	assert.Len(t, r.Body.Get("recentEquipments").Array(), 2)

	r = e.call("POST", "/api/maintenance/sync-categories", tok, nil)
	require.Equal(t, http.StatusOK, r.Status, r.Raw)
	assert.EqualValues(t, 2, r.Body.Get("summary.total").Int())
	assert.EqualValues(t, 1, r.Body.Get("summary.updated").Int())
	assert.EqualValues(t, 1, r.Body.Get("summary.no_match").Int())
	assert.Equal(t, "betoneira", r.Body.Get(`details.#(status=="updated").keyword_matched`).String())

	r = e.call("GET", "/api/equipments?category=betoneiras", "", nil)
	assert.Len(t, r.Body.Get("equipments").Array(), 1)
}
