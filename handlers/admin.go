package handlers

import (
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lovenotes/anniversary/internal/assets"
	"github.com/lovenotes/anniversary/internal/content"
	"github.com/lovenotes/anniversary/internal/form"
	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/pkg/logger"
	"github.com/lovenotes/anniversary/pkg/middleware"
)

const maxImageBytes = 20 << 20

// SaveRequest is the JSON body of POST /api/admin/save.
type SaveRequest struct {
	Values map[string]string `json:"values"`
}

// AdminPage renders the login page, or the edit form for a valid session.
func (h *AdminHandler) AdminPage(c *gin.Context) {
	sid, ok := h.sessionFromCookie(c)
	if !ok {
		c.HTML(http.StatusOK, "login.html", gin.H{})
		return
	}
	ctrl := h.controller(sid)
	ctrl.Load(c.Request.Context())
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Form":    ctrl.Form(),
		"Pending": ctrl.Pending(),
	})
}

// SavePage handles the multipart admin form: picked files are staged, text
// values collected, and the whole edit committed.
func (h *AdminHandler) SavePage(c *gin.Context) {
	sid, ok := h.sessionFromCookie(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	ctrl := h.controller(sid)
	schema := h.mgr.Schema()

	if err := c.Request.ParseMultipartForm(maxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderAdmin(c, ctrl, nil, http.StatusBadRequest, "", err.Error())
		return
	}

	values := make(map[string]string)
	for _, f := range schema.Fields() {
		if f.Kind == content.KindImage {
			continue
		}
		if v, ok := c.GetPostForm(form.InputKey(f.ID)); ok {
			values[f.ID] = strings.ReplaceAll(v, "\r\n", "\n")
		}
	}

	images := make(map[string]assets.Payload)
	for _, f := range schema.Fields() {
		if f.Kind != content.KindImage {
			continue
		}
		fh, err := c.FormFile(form.FileKey(f.ID))
		if err != nil {
			continue
		}
		p, err := readPayload(fh)
		if err != nil {
			h.renderAdmin(c, ctrl, values, http.StatusBadRequest, "", err.Error())
			return
		}
		images[f.ID] = p
	}
	if err := ctrl.StageAll(images); err != nil {
		h.renderAdmin(c, ctrl, values, http.StatusBadRequest, "", err.Error())
		return
	}

	if _, err := ctrl.Save(c.Request.Context(), values); err != nil {
		h.renderAdmin(c, ctrl, values, saveStatus(err), "", err.Error())
		return
	}
	h.renderAdmin(c, ctrl, nil, http.StatusOK, "Saved Successfully!", "")
}

// renderAdmin shows the form; submitted values, when given, replace the
// stored ones so edits survive a failed save.
func (h *AdminHandler) renderAdmin(c *gin.Context, ctrl *page.Controller, submitted map[string]string, status int, ok, errMsg string) {
	doc := ctrl.Document()
	for id, v := range submitted {
		doc[id] = v
	}
	c.HTML(status, "admin.html", gin.H{
		"Form":    form.Build(h.mgr.Schema(), doc),
		"Pending": ctrl.Pending(),
		"Status":  ok,
		"Error":   errMsg,
	})
}

func readPayload(fh *multipart.FileHeader) (assets.Payload, error) {
	if fh.Size > maxImageBytes {
		return assets.Payload{}, fmt.Errorf("%s is larger than %d MiB", fh.Filename, maxImageBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return assets.Payload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return assets.Payload{}, err
	}
	if len(data) > maxImageBytes {
		return assets.Payload{}, fmt.Errorf("%s is larger than %d MiB", fh.Filename, maxImageBytes>>20)
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		ct = "" // sniffed from the data
	}
	return assets.Payload{Name: fh.Filename, ContentType: ct, Data: data}, nil
}

func saveStatus(err error) int {
	var ue *form.UploadError
	if errors.As(err, &ue) || errors.Is(err, form.ErrNoUploader) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func stageStatus(err error) int {
	switch {
	case errors.Is(err, page.ErrUnknownField):
		return http.StatusNotFound
	case errors.Is(err, page.ErrNotImageField), errors.Is(err, page.ErrEmptyImage):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

// GetForm returns the editable form of the current document.
func (h *AdminHandler) GetForm(c *gin.Context) {
	ctrl := h.controller(middleware.SessionID(c))
	ctrl.Load(c.Request.Context())
	f := ctrl.Form()
	c.JSON(http.StatusOK, gin.H{"sections": f.Sections, "pending": ctrl.Pending()})
}

// StageUpload stages the multipart "image" file for a field. Optional x, y,
// w and h form values select the crop rectangle.
func (h *AdminHandler) StageUpload(c *gin.Context) {
	field := c.Param("field")
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	sel, err := cropSelection(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := readPayload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	preview, err := h.controller(middleware.SessionID(c)).Stage(field, p, sel)
	if err != nil {
		c.JSON(stageStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": field, "preview": preview})
}

func cropSelection(c *gin.Context) (*image.Rectangle, error) {
	keys := []string{"x", "y", "w", "h"}
	vals := make([]int, len(keys))
	present := 0
	for i, k := range keys {
		s := c.PostForm(k)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid crop %s: %q", k, s)
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(keys):
		if vals[2] <= 0 || vals[3] <= 0 {
			return nil, errors.New("crop width and height must be positive")
		}
		r := image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3])
		return &r, nil
	}
	return nil, errors.New("crop needs all of x, y, w, h")
}

// DiscardUpload drops a staged image.
func (h *AdminHandler) DiscardUpload(c *gin.Context) {
	h.controller(middleware.SessionID(c)).Discard(c.Param("field"))
	c.Status(http.StatusNoContent)
}

// Save commits submitted values together with staged images.
func (h *AdminHandler) Save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	written, err := h.controller(middleware.SessionID(c)).Save(c.Request.Context(), req.Values)
	if err != nil {
		body := gin.H{"error": err.Error()}
		var ue *form.UploadError
		var we *form.WriteError
		switch {
		case errors.As(err, &ue):
			body["field"] = ue.Field
			body["uploaded"] = ue.Uploaded
		case errors.As(err, &we):
			body["uploaded"] = we.Uploaded
		}
		logger.Warnf("admin save failed: %v", err)
		c.JSON(saveStatus(err), body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": written})
}

// GetProgress reports per-field percentages of the latest save.
func (h *AdminHandler) GetProgress(c *gin.Context) {
	ctrl := h.controller(middleware.SessionID(c))
	c.JSON(http.StatusOK, gin.H{"progress": ctrl.Progress(), "pending": ctrl.Pending()})
}
