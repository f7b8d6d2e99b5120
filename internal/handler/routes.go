package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ConfigurationPrefix is the base path of every configuration list page.
// Keep a single source of truth to avoid path drift across handlers and tests.
const ConfigurationPrefix = "/configuration"

// Route is one entry of the explicit routing table. Name identifies the route in
// logs and tests.
type Route struct {
	Method   string
	Path     string
	Name     string
	Handlers []gin.HandlerFunc
}

// GridRoutes lists the per-resource routes, relative to ConfigurationPrefix.
func GridRoutes(h *GridHandler) []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/:resource", Name: "list", Handlers: []gin.HandlerFunc{h.page}},
		{Method: http.MethodGet, Path: "/:resource/datatable", Name: "datatable", Handlers: []gin.HandlerFunc{h.datatable}},
		{Method: http.MethodGet, Path: "/:resource/export", Name: "export", Handlers: []gin.HandlerFunc{h.export}},
		{Method: http.MethodPost, Path: "/:resource/create", Name: "create", Handlers: []gin.HandlerFunc{h.notImplemented}},
		{Method: http.MethodPut, Path: "/:resource/update", Name: "update", Handlers: []gin.HandlerFunc{h.notImplemented}},
	}
}

// validateRoutes rejects tables gin would otherwise panic on at mount time.
func validateRoutes(routes []Route) error {
	var errs []error
	seen := make(map[string]string, len(routes))
	for _, rt := range routes {
		if !strings.HasPrefix(rt.Path, "/") {
			errs = append(errs, fmt.Errorf("route %q: path %q must start with /", rt.Name, rt.Path))
		}
		if len(rt.Handlers) == 0 {
			errs = append(errs, fmt.Errorf("route %q: no handlers", rt.Name))
		}
		key := rt.Method + " " + rt.Path
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("route %q: %s already taken by %q", rt.Name, key, prev))
		}
		seen[key] = rt.Name
	}
	return errors.Join(errs...)
}

func mount(g gin.IRoutes, routes []Route) error {
	if err := validateRoutes(routes); err != nil {
		return err
	}
	for _, rt := range routes {
		g.Handle(rt.Method, rt.Path, rt.Handlers...)
	}
	return nil
}
