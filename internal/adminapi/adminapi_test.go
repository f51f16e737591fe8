package adminapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfstudio/vfcatalog/internal/app"
	"github.com/vfstudio/vfcatalog/internal/catalog/transfer"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/feedback"
	"github.com/vfstudio/vfcatalog/internal/testutil"
	"github.com/vfstudio/vfcatalog/internal/testutil/apptest"
	"github.com/vfstudio/vfcatalog/internal/webserver"
	"github.com/vfstudio/vfcatalog/pkg/metrics"
)

type adminEnv struct {
	*apptest.Env
	admin *domain.User
	token string
}

func newAdminEnv(t *testing.T, memory bool) *adminEnv {
	Init()
	env := apptest.New(t, memory)
	admin := env.Admin(t)
	return &adminEnv{Env: env, admin: admin, token: env.Token(t, admin)}
}

func (e *adminEnv) call(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	return e.Do(t, method, "/api/admin"+path, body, e.token)
}

type envelope[T any] struct {
	Data T                  `json:"data"`
	Meta webserver.PageMeta `json:"meta"`
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func productBody(code, name string) map[string]interface{} {
	return map[string]interface{}{
		"code": code, "name": name, "category": "Tables", "finish": "Walnut",
		"material": "Teak", "length": 120, "breadth": 60, "height": 75,
	}
}

func TestProductCRUD(t *testing.T) {
	for name, memory := range map[string]bool{"memory": true, "gorm": false} {
		t.Run(name, func(t *testing.T) {
			env := newAdminEnv(t, memory)

			rec := env.call(t, http.MethodPost, "/products", productBody("VF-TB-001", "Cove Table"))
			apptest.StatusIs(t, rec, http.StatusOK)
			var created envelope[domain.Product]
			apptest.Decode(t, rec, &created)
			id := created.Data.ID
			assert.NotZero(t, id)
			assert.Equal(t, domain.ProductActive, created.Data.Status)

			rec = env.call(t, http.MethodPost, "/products", productBody("VF-TB-001", "Again"))
			apptest.StatusIs(t, rec, http.StatusBadRequest)

			bad := productBody("VF-TB-002", "No Height")
			delete(bad, "height")
			rec = env.call(t, http.MethodPost, "/products", bad)
			apptest.StatusIs(t, rec, http.StatusBadRequest)
			var body webserver.ErrorBody
			apptest.Decode(t, rec, &body)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)

			rec = env.call(t, http.MethodPatch, "/products/"+itoa(id), map[string]interface{}{"finish": "Ebony", "status": "draft"})
			apptest.StatusIs(t, rec, http.StatusOK)
			var patched envelope[domain.Product]
			apptest.Decode(t, rec, &patched)
			assert.Equal(t, "Ebony", patched.Data.Finish)
			assert.Equal(t, "draft", patched.Data.Status)
			assert.Equal(t, "Cove Table", patched.Data.Name)
			assert.Equal(t, 75.0, patched.Data.Height)

			rec = env.call(t, http.MethodPatch, "/products/"+itoa(id), map[string]interface{}{"id": 99})
			apptest.StatusIs(t, rec, http.StatusBadRequest)

			full := productBody("VF-TB-001", "Cove Table II")
			full["status"] = "inactive"
			rec = env.call(t, http.MethodPut, "/products/"+itoa(id), full)
			apptest.StatusIs(t, rec, http.StatusOK)
			got, err := env.App.Products().Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, "Cove Table II", got.Name)
			assert.Equal(t, "Walnut", got.Finish)
			assert.Equal(t, created.Data.CreatedAt.Unix(), got.CreatedAt.Unix())

			rec = env.call(t, http.MethodGet, "/products?status=inactive", nil)
			apptest.StatusIs(t, rec, http.StatusOK)
			var list envelope[[]domain.Product]
			apptest.Decode(t, rec, &list)
			assert.Equal(t, int64(1), list.Meta.Total)
			rec = env.call(t, http.MethodGet, "/products?status=active", nil)
			apptest.Decode(t, rec, &list)
			assert.Equal(t, int64(0), list.Meta.Total)
			rec = env.call(t, http.MethodGet, "/products?status=gone", nil)
			apptest.StatusIs(t, rec, http.StatusBadRequest)

			rec = env.call(t, http.MethodDelete, "/products/"+itoa(id), nil)
			apptest.StatusIs(t, rec, http.StatusOK)
			rec = env.call(t, http.MethodGet, "/products/"+itoa(id), nil)
			apptest.StatusIs(t, rec, http.StatusNotFound)
			rec = env.call(t, http.MethodDelete, "/products/"+itoa(id), nil)
			apptest.StatusIs(t, rec, http.StatusNotFound)
		})
	}
}

func TestDeleteProductCascadesWishlist(t *testing.T) {
	env := newAdminEnv(t, false)
	ctx := context.Background()
	p := testutil.Product("VF-CH-001", "Aria Chair", "Chairs", "Walnut", "Teak")
	require.NoError(t, env.App.Products().Create(ctx, p))
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")
	_, err := env.App.Wishlist().Add(ctx, shopper.ID, p.ID)
	require.NoError(t, err)

	rec := env.call(t, http.MethodDelete, "/products/"+itoa(p.ID), nil)
	apptest.StatusIs(t, rec, http.StatusOK)

	in, err := env.App.Wishlist().IsMember(ctx, shopper.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	env := newAdminEnv(t, false)
	batch := []map[string]interface{}{
		productBody("VF-A-1", "One"),
		productBody("VF-A-2", "Two"),
		productBody("VF-A-1", "One again"),
	}
	rec := env.call(t, http.MethodPost, "/products/bulk", batch)
	apptest.StatusIs(t, rec, http.StatusBadRequest)
	var list envelope[[]domain.Product]
	apptest.Decode(t, env.call(t, http.MethodGet, "/products", nil), &list)
	assert.Equal(t, int64(0), list.Meta.Total)

	rec = env.call(t, http.MethodPost, "/products/bulk", batch[:2])
	apptest.StatusIs(t, rec, http.StatusOK)
	apptest.Decode(t, env.call(t, http.MethodGet, "/products", nil), &list)
	assert.Equal(t, int64(2), list.Meta.Total)
}

func upload(t *testing.T, env *adminEnv, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.Server.Echo().ServeHTTP(rec, req)
	return rec
}

func TestImportExport(t *testing.T) {
	env := newAdminEnv(t, true)
	csv := "code,name,category,finish,material,length,breadth,height,image,images,description,status,created_at\n" +
		"VF-1,Teak Stool,Stools,Natural,Teak,40,40,45,,,,active,2024-02-01\n" +
		"VF-2,Broken,Stools,Natural,Teak,-1,40,45,,,,,\n" +
		"VF-3,Cane Chair,Chairs,Honey,Cane,50,55,85,,a.jpg|b.jpg,,draft,\n"

	rec := upload(t, env, "products.csv", []byte(csv))
	apptest.StatusIs(t, rec, http.StatusOK)
	var report envelope[transfer.Report]
	apptest.Decode(t, rec, &report)
	assert.Equal(t, 3, report.Data.Total)
	assert.Equal(t, 2, report.Data.Created)
	require.Len(t, report.Data.Invalid, 1)
	assert.Equal(t, 3, report.Data.Invalid[0].Line)

	rec = upload(t, env, "products.csv", []byte(csv))
	apptest.Decode(t, rec, &report)
	assert.Equal(t, 0, report.Data.Created)
	assert.Len(t, report.Data.Conflicts, 2)

	rec = upload(t, env, "products.txt", []byte(csv))
	apptest.StatusIs(t, rec, http.StatusBadRequest)

	rec = env.call(t, http.MethodGet, "/products/export?format=csv&status=draft", nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	rows, err := transfer.ReadCSV(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "VF-3", rows[0].Code)
	assert.Equal(t, "a.jpg|b.jpg", rows[0].Images)

	rec = env.call(t, http.MethodGet, "/products/export?format=xlsx", nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	rows, err = transfer.ReadXLSX(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "VF-1", rows[0].Code)

	// the xlsx export imports back cleanly into another catalog
	other := newAdminEnv(t, false)
	rec = upload(t, other, "products.xlsx", mustExport(t, env))
	apptest.Decode(t, rec, &report)
	assert.Equal(t, 2, report.Data.Created)

	rec = env.call(t, http.MethodGet, "/products/export?format=pdf", nil)
	apptest.StatusIs(t, rec, http.StatusBadRequest)
}

func mustExport(t *testing.T, env *adminEnv) []byte {
	rec := env.call(t, http.MethodGet, "/products/export?format=xlsx", nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	return rec.Body.Bytes()
}

func TestUserAdministration(t *testing.T) {
	env := newAdminEnv(t, true)
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")
	env.Shopper(t, "+919876510005", "Vikram")

	rec := env.call(t, http.MethodGet, "/users?q=asha", nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	var users envelope[[]domain.User]
	apptest.Decode(t, rec, &users)
	require.Len(t, users.Data, 1)
	assert.Equal(t, shopper.ID, users.Data[0].ID)

	rec = env.call(t, http.MethodPatch, "/users/"+itoa(shopper.ID), map[string]interface{}{"city": "Udaipur", "is_admin": true})
	apptest.StatusIs(t, rec, http.StatusOK)
	var updated envelope[domain.User]
	apptest.Decode(t, rec, &updated)
	assert.True(t, updated.Data.IsAdmin)
	assert.Equal(t, "Udaipur", updated.Data.City)

	rec = env.call(t, http.MethodGet, "/users?admin=true", nil)
	apptest.Decode(t, rec, &users)
	assert.Equal(t, int64(2), users.Meta.Total)

	rec = env.call(t, http.MethodPatch, "/users/"+itoa(shopper.ID), map[string]interface{}{"is_primary_admin": true})
	apptest.StatusIs(t, rec, http.StatusBadRequest)

	// a secondary admin cannot demote or delete other admins
	updated.Data.IsAdmin = true
	secondary := env.Token(t, &updated.Data)
	rec = env.Do(t, http.MethodDelete, "/api/admin/users/"+itoa(env.admin.ID), nil, secondary)
	apptest.StatusIs(t, rec, http.StatusForbidden)
	rec = env.Do(t, http.MethodPatch, "/api/admin/users/"+itoa(env.admin.ID), map[string]interface{}{"name": "x"}, secondary)
	apptest.StatusIs(t, rec, http.StatusForbidden)

	rec = env.call(t, http.MethodDelete, "/users/"+itoa(env.admin.ID), nil)
	apptest.StatusIs(t, rec, http.StatusForbidden)

	rec = env.call(t, http.MethodDelete, "/users/"+itoa(shopper.ID), nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	rec = env.call(t, http.MethodGet, "/users/"+itoa(shopper.ID), nil)
	apptest.StatusIs(t, rec, http.StatusNotFound)
}

func TestFeedbackModeration(t *testing.T) {
	env := newAdminEnv(t, false)
	ctx := context.Background()
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")
	fb, err := env.App.Feedback().Submit(ctx, shopper, feedback.SubmitRequest{Rating: 4, Title: "Good", Message: "Sturdy"})
	require.NoError(t, err)
	path := "/feedback/" + itoa(fb.ID)

	rec := env.call(t, http.MethodPut, path+"/publish", map[string]bool{"published": true})
	apptest.StatusIs(t, rec, http.StatusBadRequest)

	rec = env.call(t, http.MethodPut, path+"/approve", map[string]bool{"approved": true})
	apptest.StatusIs(t, rec, http.StatusOK)
	rec = env.call(t, http.MethodPut, path+"/publish", map[string]bool{"published": true})
	apptest.StatusIs(t, rec, http.StatusOK)

	var list envelope[[]domain.Feedback]
	apptest.Decode(t, env.call(t, http.MethodGet, "/feedback?published=true", nil), &list)
	assert.Equal(t, int64(1), list.Meta.Total)

	rec = env.call(t, http.MethodPut, path+"/approve", map[string]bool{"approved": false})
	apptest.StatusIs(t, rec, http.StatusOK)
	var one envelope[domain.Feedback]
	apptest.Decode(t, rec, &one)
	assert.False(t, one.Data.IsPublished)

	rec = env.call(t, http.MethodPut, path+"/note", map[string]string{"note": "  called customer  "})
	apptest.Decode(t, rec, &one)
	assert.Equal(t, "called customer", one.Data.AdminNote)

	rec = env.call(t, http.MethodGet, "/feedback?approved=maybe", nil)
	apptest.StatusIs(t, rec, http.StatusBadRequest)

	rec = env.call(t, http.MethodDelete, path, nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	rec = env.call(t, http.MethodGet, path, nil)
	apptest.StatusIs(t, rec, http.StatusNotFound)
}

func TestDashboardAndOprLog(t *testing.T) {
	env := newAdminEnv(t, false)
	ctx := context.Background()
	require.NoError(t, env.App.Products().BulkCreate(ctx, []*domain.Product{
		testutil.Product("VF-1", "One", "Chairs", "Walnut", "Teak"),
		testutil.Product("VF-2", "Two", "Tables", "Walnut", ""),
	}))
	shopper := env.Shopper(t, apptest.ShopperPhone, "Asha")
	for _, rating := range []int{5, 3, 4} {
		_, err := env.App.Feedback().Submit(ctx, shopper, feedback.SubmitRequest{Rating: rating, Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	rec := env.call(t, http.MethodGet, "/dashboard", nil)
	apptest.StatusIs(t, rec, http.StatusOK)
	var dash envelope[dashboard]
	apptest.Decode(t, rec, &dash)
	assert.Equal(t, int64(2), dash.Data.Products["total"])
	assert.Equal(t, int64(2), dash.Data.Products["active"])
	assert.Equal(t, int64(2), dash.Data.Users)
	assert.Equal(t, int64(1), dash.Data.Admins)
	assert.Equal(t, 2, dash.Data.Facets["category"])
	assert.Equal(t, 1, dash.Data.Facets["material"])
	assert.Equal(t, 3, dash.Data.Ratings.Count)
	assert.Equal(t, 4.0, dash.Data.Ratings.Median)

	rec = env.call(t, http.MethodPost, "/products", productBody("VF-9", "Logged"))
	apptest.StatusIs(t, rec, http.StatusOK)
	var logs envelope[[]domain.SysOprLog]
	apptest.Decode(t, env.call(t, http.MethodGet, "/oprlogs?action=product_create", nil), &logs)
	require.Len(t, logs.Data, 1)
	assert.Equal(t, apptest.AdminNumber, logs.Data[0].OprName)
	assert.Contains(t, logs.Data[0].OptDesc, "VF-9")
}

func TestAdminRoutesRejectShoppers(t *testing.T) {
	env := newAdminEnv(t, true)
	token := env.Token(t, env.Shopper(t, apptest.ShopperPhone, "Asha"))
	rec := env.Do(t, http.MethodGet, "/api/admin/products", nil, token)
	apptest.StatusIs(t, rec, http.StatusForbidden)
	rec = env.Do(t, http.MethodGet, "/api/admin/dashboard", nil, "")
	apptest.StatusIs(t, rec, http.StatusUnauthorized)
}

func TestJobs(t *testing.T) {
	env := newAdminEnv(t, true)
	require.NoError(t, env.App.Products().BulkCreate(context.Background(), []*domain.Product{
		testutil.Product("VF-1", "One", "Chairs", "Walnut", "Teak"),
	}))

	var jobs envelope[[]app.JobInfo]
	apptest.Decode(t, env.call(t, http.MethodGet, "/jobs", nil), &jobs)
	names := make([]string, 0, len(jobs.Data))
	for _, j := range jobs.Data {
		names = append(names, j.Name)
	}
	assert.ElementsMatch(t, []string{"monitor", "catalog-gauge", "cleanup"}, names)

	rec := env.call(t, http.MethodPost, "/jobs/catalog-gauge/run", nil)
	apptest.StatusIs(t, rec, http.StatusNoContent)
	n, found := metrics.Get("catalog_products_active")
	require.True(t, found)
	assert.Equal(t, int64(1), n)

	rec = env.call(t, http.MethodPost, "/jobs/nope/run", nil)
	apptest.StatusIs(t, rec, http.StatusNotFound)

	var series envelope[[]metrics.Point]
	apptest.Decode(t, env.call(t, http.MethodGet, "/metrics/catalog_products_active?since=1h", nil), &series)
	require.NotEmpty(t, series.Data)
	assert.EqualValues(t, 1, series.Data[len(series.Data)-1].Value)
	rec = env.call(t, http.MethodGet, "/metrics/catalog_products_active?since=soon", nil)
	apptest.StatusIs(t, rec, http.StatusBadRequest)
}
