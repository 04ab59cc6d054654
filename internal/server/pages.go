package server

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed pages/*.html
var pages embed.FS

const htmlContentType = "text/html; charset=utf-8"

func page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := pages.ReadFile("pages/" + name)
		if err != nil {
			c.AbortWithStatus(http.StatusNotFound)

			return
		}

		c.Data(http.StatusOK, htmlContentType, data)
	}
}
