package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// apiPrefixes never fall back to index.html.
var apiPrefixes = []string{"/api/", "/stories"}

// staticHandler serves files from the public directory and index.html for any
// other GET, so client-side routes load the app.
func (s *Server) staticHandler(c *gin.Context) {
	reqPath := c.Request.URL.Path
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	if reqPath == "/api" {
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(reqPath, prefix) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
	}

	root := s.config.Server.PublicDir
	// path.Clean on a rooted path cannot climb above "/"
	clean := path.Clean("/" + reqPath)
	if clean != "/" {
		file := filepath.Join(root, filepath.FromSlash(clean))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
	}

	index := filepath.Join(root, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.log.Warn("index.html missing", "public_dir", root)
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.File(index)
}
