package handlers

import (
	"net/http"

	"github.com/freshroots/harvest-backend/internal/core/eligibility"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SettingsHandler struct {
	Store *StoreSettings
}

func NewSettingsHandler(store *StoreSettings) *SettingsHandler {
	return &SettingsHandler{Store: store}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()
	c.JSON(http.StatusOK, utils.SuccessResponse("Settings fetched successfully", gin.H{
		"settings": h.Store.Current(ctx),
	}))
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var input models.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid json body"))
		return
	}
	if err := validate.Struct(input); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	cutoff, err := eligibility.ParseCutoff(input.CutoffTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse(err.Error()))
		return
	}
	input.CutoffTime = cutoff.String()

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Store.Repo.Save(ctx, input); err != nil {
		logrus.WithError(err).Error("Save settings")
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to save settings"))
		return
	}
	logrus.WithField("cutoff", input.CutoffTime).Info("Store settings updated")
	c.JSON(http.StatusOK, utils.SuccessResponse("Settings updated successfully", gin.H{"settings": input}))
}
