package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type ProductHandler struct {
	productService services.ProductService
}

func NewProductHandler(productService services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func productQuery(c *gin.Context) (services.ProductQuery, bool) {
	var q services.ProductQuery
	var ok bool
	if q.Page, ok = queryInt(c, "page", 1); !ok {
		return q, false
	}
	if q.Limit, ok = queryInt(c, "limit", services.DefaultPageLimit); !ok {
		return q, false
	}
	if q.MinPrice, ok = queryInt64(c, "min_price"); !ok {
		return q, false
	}
	if q.MaxPrice, ok = queryInt64(c, "max_price"); !ok {
		return q, false
	}
	q.Query = c.Query("q")
	q.Category = c.Query("category")
	q.Brand = c.Query("brand")
	q.Sort = c.Query("sort")
	return q, true
}

// GET /api/products
func (ph *ProductHandler) List(c *gin.Context) {
	q, ok := productQuery(c)
	if !ok {
		return
	}
	out, err := ph.productService.List(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/products/:id (uuid or slug)
func (ph *ProductHandler) Get(c *gin.Context) {
	p, err := ph.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// GET /api/products/categories
func (ph *ProductHandler) Categories(c *gin.Context) {
	cats, err := ph.productService.Categories(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"categories": cats})
}

// GET /api/admin/products
func (ph *ProductHandler) AdminList(c *gin.Context) {
	q, ok := productQuery(c)
	if !ok {
		return
	}
	out, err := ph.productService.AdminList(c.Request.Context(), q)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/admin/products/:id
func (ph *ProductHandler) AdminGet(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	p, err := ph.productService.AdminGet(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// POST /api/admin/products
func (ph *ProductHandler) Create(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}
	p, err := ph.productService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"product": p})
}

// PATCH /api/admin/products/:id
func (ph *ProductHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ProductPatch
	if !bindJSON(c, &req) {
		return
	}
	p, err := ph.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}

// DELETE /api/admin/products/:id
func (ph *ProductHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ph.productService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/admin/products/:id/images (multipart "file")
func (ph *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	name, f, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()
	p, err := ph.productService.AddImage(c.Request.Context(), id, name, f)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"product": p})
}
