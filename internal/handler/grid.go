package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/config-grid-service/internal/service"
	"github.com/maxviazov/config-grid-service/pkg/response"
	"github.com/rs/zerolog"
)

// GridHandler serves the configuration list pages and their data-table endpoints.
type GridHandler struct {
	svc           service.GridService
	templates     *template.Template
	metrics       *Metrics
	exportMaxRows int
}

func NewGridHandler(svc service.GridService, templates *template.Template, metrics *Metrics, exportMaxRows int) *GridHandler {
	return &GridHandler{svc: svc, templates: templates, metrics: metrics, exportMaxRows: exportMaxRows}
}

// pageView is what list templates render: a page name plus its assets.
type pageView struct {
	Title     string
	Resource  string
	Columns   []string
	CSS       []string
	JS        []string
	DataURL   string
	ExportURL string
}

// page renders the list page; it only selects a template and registers assets.
func (h *GridHandler) page(c *gin.Context) {
	d, err := h.svc.Describe(c.Param("resource"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if h.templates == nil || h.templates.Lookup(d.Page.Template) == nil {
		response.WriteError(c, fmt.Errorf("list template %q is not loaded", d.Page.Template))
		return
	}
	base := ConfigurationPrefix + "/" + d.Resource
	c.HTML(http.StatusOK, d.Page.Template, pageView{
		Title:     d.Page.Title,
		Resource:  d.Resource,
		Columns:   d.ColumnNames(),
		CSS:       d.Page.CSS,
		JS:        d.Page.JS,
		DataURL:   base + "/datatable",
		ExportURL: base + "/export",
	})
}

func (h *GridHandler) datatable(c *gin.Context) {
	name := c.Param("resource")
	req, err := h.svc.BuildRequest(name, c.Request.URL.Query())
	if err != nil {
		h.observe(name, err, 0)
		response.WriteError(c, err)
		return
	}
	zerolog.Ctx(c.Request.Context()).Debug().
		Str("resource", req.Resource).
		Int("offset", req.Offset).
		Int("limit", req.Limit).
		Str("sort", req.Sort.Column).
		Str("dir", string(req.Sort.Direction)).
		Int("filters", len(req.Criteria.Filters)).
		Msg("grid request built")

	res, err := h.svc.Execute(c.Request.Context(), req)
	if err != nil {
		h.observe(name, err, 0)
		response.WriteError(c, err)
		return
	}
	h.observe(name, nil, res.TotalCount)
	response.WriteData(c, http.StatusOK, h.svc.Serialize(res))
}

// export streams the filtered, sorted rows as an xlsx workbook.
func (h *GridHandler) export(c *gin.Context) {
	name := c.Param("resource")
	d, err := h.svc.Describe(name)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	req, err := h.svc.BuildRequest(name, c.Request.URL.Query())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.Collect(c.Request.Context(), req, h.exportMaxRows)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, d.Resource))
	c.Status(http.StatusOK)
	if err := writeXLSX(c.Writer, d.Resource, d.ColumnNames(), res.Rows); err != nil {
		// headers are gone already; all that is left is to record it
		_ = c.Error(err)
	}
}

// notImplemented answers create/update: the routes exist, the behavior does not.
func (h *GridHandler) notImplemented(c *gin.Context) {
	if _, err := h.svc.Describe(c.Param("resource")); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteError(c, response.ErrNotImplemented)
}

func (h *GridHandler) observe(name string, err error, filtered int) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUnknownResource):
		// keep user-supplied names out of label values
		name, outcome = "unknown", "unknown_resource"
	case errors.Is(err, service.ErrInvalidParameter):
		outcome = "invalid_parameter"
	case errors.Is(err, service.ErrBackendUnavailable):
		outcome = "backend_unavailable"
	default:
		outcome = "error"
	}
	h.metrics.observeGrid(name, outcome, filtered)
}
