package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/shopfront-backend/internal/http/response"
	"github.com/yungbote/shopfront-backend/internal/services"
)

type BannerHandler struct {
	bannerService services.BannerService
}

func NewBannerHandler(bannerService services.BannerService) *BannerHandler {
	return &BannerHandler{bannerService: bannerService}
}

// GET /api/banners
func (bh *BannerHandler) ListVisible(c *gin.Context) {
	items, err := bh.bannerService.ListVisible(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

func (bh *BannerHandler) AdminList(c *gin.Context) {
	items, err := bh.bannerService.AdminList(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

func (bh *BannerHandler) Create(c *gin.Context) {
	var req services.BannerInput
	if !bindJSON(c, &req) {
		return
	}
	b, err := bh.bannerService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"banner": b})
}

func (bh *BannerHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.BannerPatch
	if !bindJSON(c, &req) {
		return
	}
	b, err := bh.bannerService.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"banner": b})
}

func (bh *BannerHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := bh.bannerService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (bh *BannerHandler) UploadImage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	name, f, ok := formFile(c)
	if !ok {
		return
	}
	defer f.Close()
	b, err := bh.bannerService.SetImage(c.Request.Context(), id, name, f)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"banner": b})
}
