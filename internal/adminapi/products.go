package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vfstudio/vfcatalog/internal/catalog"
	"github.com/vfstudio/vfcatalog/internal/domain"
	"github.com/vfstudio/vfcatalog/internal/webserver"
)

type productPayload struct {
	Code        string   `json:"code" validate:"required,max=64"`
	Name        string   `json:"name" validate:"required,max=255"`
	Category    string   `json:"category" validate:"max=100"`
	Finish      string   `json:"finish" validate:"max=100"`
	Material    string   `json:"material" validate:"max=100"`
	Length      float64  `json:"length" validate:"gt=0"`
	Breadth     float64  `json:"breadth" validate:"gt=0"`
	Height      float64  `json:"height" validate:"gt=0"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Status      string   `json:"status" validate:"omitempty,oneof=active inactive draft"`
}

func (p productPayload) product() *domain.Product {
	return &domain.Product{
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Finish:      p.Finish,
		Material:    p.Material,
		Length:      p.Length,
		Breadth:     p.Breadth,
		Height:      p.Height,
		Image:       p.Image,
		Images:      p.Images,
		Description: p.Description,
		Status:      p.Status,
	}
}

// productPatch is a partial update; absent keys keep their value.
type productPatch struct {
	Code        *string   `mapstructure:"code"`
	Name        *string   `mapstructure:"name"`
	Category    *string   `mapstructure:"category"`
	Finish      *string   `mapstructure:"finish"`
	Material    *string   `mapstructure:"material"`
	Length      *float64  `mapstructure:"length"`
	Breadth     *float64  `mapstructure:"breadth"`
	Height      *float64  `mapstructure:"height"`
	Image       *string   `mapstructure:"image"`
	Images      *[]string `mapstructure:"images"`
	Description *string   `mapstructure:"description"`
	Status      *string   `mapstructure:"status"`
}

func (p productPatch) apply(dst *domain.Product) {
	setString(&dst.Code, p.Code)
	setString(&dst.Name, p.Name)
	setString(&dst.Category, p.Category)
	setString(&dst.Finish, p.Finish)
	setString(&dst.Material, p.Material)
	setString(&dst.Image, p.Image)
	setString(&dst.Description, p.Description)
	setString(&dst.Status, p.Status)
	if p.Length != nil {
		dst.Length = *p.Length
	}
	if p.Breadth != nil {
		dst.Breadth = *p.Breadth
	}
	if p.Height != nil {
		dst.Height = *p.Height
	}
	if p.Images != nil {
		dst.Images = *p.Images
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPOST("/products/bulk", bulkCreateProducts)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiPATCH("/products/:id", patchProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

// listProducts runs the public listing with an extra status scope.
func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	req := catalog.ListRequest{
		Search:   c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Finish:   c.QueryParam("finish"),
		Material: c.QueryParam("material"),
		SortBy:   c.QueryParam("sort"),
		Status:   c.QueryParam("status"),
		Page:     page,
		Limit:    pageSize,
	}
	if req.Status != "" && !domain.ValidStatus(req.Status) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown product status", req.Status)
	}
	result, err := GetAppContext(c).Listing().List(c.Request().Context(), req)
	if err != nil {
		return handleError(c, err, "Failed to query products")
	}
	return paged(c, result.Items, result.Pagination.Total, result.Pagination.Page, result.Pagination.Limit)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetAppContext(c).Products().Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Product not found")
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleError(c, err, "Invalid product")
	}
	p := payload.product()
	if err := GetAppContext(c).Products().Create(c.Request().Context(), p); err != nil {
		return handleError(c, err, "Failed to create product")
	}
	logOperation(c, "product_create", fmt.Sprintf("created product %s (%d)", p.Code, p.ID))
	return ok(c, p)
}

// bulkCreateProducts inserts a JSON array of products, all or none.
func bulkCreateProducts(c echo.Context) error {
	var payloads []productPayload
	if err := c.Bind(&payloads); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse products", err.Error())
	}
	if len(payloads) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No products supplied", nil)
	}
	products := make([]*domain.Product, len(payloads))
	for i := range payloads {
		products[i] = payloads[i].product()
	}
	if err := GetAppContext(c).Products().BulkCreate(c.Request().Context(), products); err != nil {
		return handleError(c, err, "Failed to create products")
	}
	logOperation(c, "product_bulk_create", fmt.Sprintf("created %d products", len(products)))
	return ok(c, map[string]interface{}{"created": len(products), "products": products})
}

// updateProduct replaces every editable field.
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleError(c, err, "Invalid product")
	}
	p := payload.product()
	p.ID = id
	if err := GetAppContext(c).Products().Update(c.Request().Context(), p); err != nil {
		return handleError(c, err, "Failed to update product")
	}
	logOperation(c, "product_update", fmt.Sprintf("updated product %s (%d)", p.Code, p.ID))
	return ok(c, p)
}

func patchProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var patch productPatch
	if err := decodePatch(c, &patch); err != nil {
		return handleError(c, err, "Invalid product update")
	}
	store := GetAppContext(c).Products()
	p, err := store.Get(c.Request().Context(), id)
	if err != nil {
		return handleError(c, err, "Product not found")
	}
	patch.apply(p)
	if err := store.Update(c.Request().Context(), p); err != nil {
		return handleError(c, err, "Failed to update product")
	}
	logOperation(c, "product_update", fmt.Sprintf("patched product %s (%d)", p.Code, p.ID))
	return ok(c, p)
}

// deleteProduct removes the product; wishlist entries follow via the event bus.
func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetAppContext(c).Products().Delete(c.Request().Context(), id); err != nil {
		return handleError(c, err, "Failed to delete product")
	}
	logOperation(c, "product_delete", fmt.Sprintf("deleted product %d", id))
	return ok(c, map[string]interface{}{"id": id})
}
