package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/oliverschmidt99/daily-doc-app/internal/doku"
	"github.com/oliverschmidt99/daily-doc-app/internal/vcs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const jsonContentType = "application/json; charset=utf-8"

// response is the envelope of every non-document reply.
type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Output  string `json:"output,omitempty"`
}

func success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, response{Status: "success", Message: message})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, response{Status: "error", Message: message})
}

// failErr maps domain errors to status codes. Anything unexpected is logged
// and answered with a generic 500.
func (s *Server) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, doku.ErrTagNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, doku.ErrTagExists),
		errors.Is(err, doku.ErrContextExists),
		errors.Is(err, doku.ErrUnreadable):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, doku.ErrInvalidImport),
		errors.Is(err, doku.ErrInvalidDocument),
		errors.Is(err, doku.ErrInvalidContextID),
		errors.Is(err, doku.ErrTagNameRequired),
		errors.Is(err, doku.ErrUnknownCategory),
		errors.Is(err, doku.ErrContextNameRequired):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, "Fehler beim Speichern")
	}
}

func (s *Server) recovered(c *gin.Context, v any) {
	s.log.Error("panic while handling request",
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Any("panic", v))
	fail(c, http.StatusInternalServerError, "internal error")
}

// contextID returns the :context path parameter, or the default context
// for the parameterless routes.
func contextID(c *gin.Context) string {
	if id := c.Param("context"); id != "" {
		return id
	}

	return doku.DefaultContext
}

// body reads the request body and rejects blank payloads.
func body(c *gin.Context) ([]byte, bool) {
	raw, err := c.GetRawData()
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		fail(c, http.StatusBadRequest, "Keine Daten empfangen")

		return nil, false
	}

	return raw, true
}

func (s *Server) listContexts(c *gin.Context) {
	contexts, err := s.svc.ListContexts()
	if err != nil {
		s.failErr(c, err)

		return
	}

	c.JSON(http.StatusOK, contexts)
}

type createContextRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) createContext(c *gin.Context) {
	var req createContextRequest

	err := c.ShouldBindJSON(&req)
	if err != nil || strings.TrimSpace(req.ID) == "" {
		fail(c, http.StatusBadRequest, "Kontext-ID fehlt")

		return
	}

	err = s.svc.CreateContext(req.ID, req.Name)
	if err != nil {
		s.failErr(c, err)

		return
	}

	c.JSON(http.StatusOK, response{
		Status:  "success",
		Message: "Kontext erstellt",
		ID:      doku.ResolveContextKey(req.ID),
	})
}

type renameContextRequest struct {
	Name string `json:"name"`
}

func (s *Server) renameContext(c *gin.Context) {
	var req renameContextRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		fail(c, http.StatusBadRequest, "Keine Daten empfangen")

		return
	}

	err = s.svc.Rename(contextID(c), req.Name)
	if err != nil {
		s.failErr(c, err)

		return
	}

	success(c, "Kontext umbenannt")
}

func (s *Server) load(c *gin.Context) {
	doc := s.svc.Load(contextID(c))

	data, err := doc.Encode()
	if err != nil {
		s.failErr(c, err)

		return
	}

	c.Data(http.StatusOK, jsonContentType, data)
}

func (s *Server) save(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}

	doc, err := doku.DecodeDocument(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	if isEmptyObject(raw) {
		fail(c, http.StatusBadRequest, "Keine Daten empfangen")

		return
	}

	err = s.svc.Save(contextID(c), doc)
	if err != nil {
		s.failErr(c, err)

		return
	}

	success(c, "Daten gespeichert")
}

type editTagRequest struct {
	OldName     string `json:"oldName"`
	NewName     string `json:"newName"`
	NewCategory string `json:"newCategory"`
}

func (s *Server) editTag(c *gin.Context) {
	var req editTagRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		fail(c, http.StatusBadRequest, "Keine Daten empfangen")

		return
	}

	err = s.svc.EditTag(contextID(c), req.OldName, req.NewName, req.NewCategory)
	if err != nil {
		s.failErr(c, err)

		return
	}

	success(c, "Tag aktualisiert")
}

type deleteTagRequest struct {
	TagName string `json:"tagName"`
}

func (s *Server) deleteTag(c *gin.Context) {
	var req deleteTagRequest

	err := c.ShouldBindJSON(&req)
	if err != nil {
		fail(c, http.StatusBadRequest, "Keine Daten empfangen")

		return
	}

	err = s.svc.DeleteTag(contextID(c), req.TagName)
	if err != nil {
		s.failErr(c, err)

		return
	}

	success(c, "Tag gelöscht")
}

func (s *Server) importDocument(c *gin.Context) {
	raw, ok := body(c)
	if !ok {
		return
	}

	err := s.svc.ImportDocument(contextID(c), raw)
	if err != nil {
		s.failErr(c, err)

		return
	}

	success(c, "Daten importiert")
}

type settings struct {
	DataDir string `json:"dataDir"`
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settings{DataDir: s.svc.Store().Dir()})
}

func (s *Server) updateSettings(c *gin.Context) {
	var req settings

	err := c.ShouldBindJSON(&req)
	if err != nil || strings.TrimSpace(req.DataDir) == "" {
		fail(c, http.StatusBadRequest, "Datenverzeichnis fehlt")

		return
	}

	dir, err := filepath.Abs(strings.TrimSpace(req.DataDir))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())

		return
	}

	s.svc.Store().SetDir(dir)

	success(c, "Einstellungen gespeichert")
}

func (s *Server) sync(run func(ctx context.Context) vcs.Result) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.syncer == nil {
			fail(c, http.StatusServiceUnavailable, "Synchronisation ist nicht konfiguriert")

			return
		}

		res := run(c.Request.Context())
		if !res.Succeeded {
			c.JSON(http.StatusInternalServerError, response{
				Status:  "error",
				Message: "Befehl fehlgeschlagen",
				Output:  res.Output,
			})

			return
		}

		c.JSON(http.StatusOK, response{Status: "success", Message: "OK", Output: res.Output})
	}
}

// isEmptyObject reports whether raw is the JSON object {}. Saving it counts
// as a missing payload.
func isEmptyObject(raw []byte) bool {
	var obj map[string]json.RawMessage

	return json.Unmarshal(raw, &obj) == nil && len(obj) == 0
}
