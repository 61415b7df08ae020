package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"osintrecon/internal/services"
	"osintrecon/pkg/tools"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTools(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catalog, err := tools.DefaultCatalog()
	require.NoError(t, err)

	router := gin.New()
	router.GET("/api/tools", NewToolsHandler(services.NewCatalogService(catalog)).ListTools)

	req, _ := http.NewRequest("GET", "/api/tools", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, `[
		{
			"name": "THEHARVESTER",
			"description": "E-mails, hosts and IPs from public sources",
			"image": "ghcr.io/laramies/theharvester:latest",
			"supportsLimit": true,
			"supportsSources": true
		},
		{
			"name": "AMASS",
			"description": "Passive subdomain enumeration",
			"image": "caffix/amass:latest",
			"supportsLimit": false,
			"supportsSources": false
		}
	]`, w.Body.String())
}
