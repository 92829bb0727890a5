package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed templates/*
var templateFiles embed.FS

const defaultTitle = "User Management System"

// Frontend serves the single-page user management UI
type Frontend struct {
	title    string
	apiURL   string
	page     *template.Template
	staticFS fs.FS
	logger   *zap.Logger
}

// NewFrontend parses the embedded page template. apiURL is the dispatcher path the page calls.
func NewFrontend(apiURL string, logger *zap.Logger) (*Frontend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	page, err := template.ParseFS(templateFiles, "templates/index.html")
	if err != nil {
		return nil, err
	}

	// the embedded paths carry a 'static/' prefix
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}

	return &Frontend{
		title:    defaultTitle,
		apiURL:   apiURL,
		page:     page,
		staticFS: staticFS,
		logger:   logger,
	}, nil
}

// SetupRoutes mounts the page at / and the assets under /static
func (f *Frontend) SetupRoutes(router gin.IRouter) {
	router.StaticFS("/static", http.FS(f.staticFS))
	router.GET("/", f.servePage)
	router.GET("/index.html", f.servePage)
}

func (f *Frontend) servePage(c *gin.Context) {
	data := map[string]interface{}{
		"Title":  f.title,
		"APIURL": f.apiURL,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := f.page.Execute(c.Writer, data); err != nil {
		f.logger.Error("Failed to execute page template", zap.Error(err))
		c.String(http.StatusInternalServerError, "Unable to render page.")
		return
	}
}
