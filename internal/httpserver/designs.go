package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/service/design"
)

// multipart overhead on top of the sketch itself
const maxDesignBody = design.MaxSketchBytes + 1<<20

func (h *handlers) submitDesign(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDesignBody)

	var in design.Input
	if err := c.ShouldBind(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, &design.ValidationError{Field: "sketch", Reason: "larger than 10 MiB"})
			return
		}
		writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var sketch *design.Sketch
	if fh, err := c.FormFile("sketch"); err == nil {
		f, err := fh.Open()
		if err != nil {
			writeError(c, fmt.Errorf("%w: read sketch: %v", errBadRequest, err))
			return
		}
		defer f.Close()
		sketch = &design.Sketch{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		}
	}

	sub, err := h.deps.Designs.Submit(c.Request.Context(), in, sketch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *handlers) listDesigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.deps.Designs.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}
