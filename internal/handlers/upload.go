package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/services"
)

const multipartMemory = 8 << 20

// photoFields are the multipart field names photos may arrive under.
var photoFields = []string{"fotos", "imagenes", "photos"}

// readBody flattens a JSON, multipart or urlencoded body into field values.
// Files are returned in field then upload order.
func readBody(c *gin.Context, maxBytes int64) (services.Body, []*multipart.FileHeader, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}

	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			return nil, nil, bodyError("failed to parse multipart form", err)
		}
		form := c.Request.MultipartForm
		body := services.Body{}
		for key, values := range form.Value {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
		var files []*multipart.FileHeader
		for _, field := range photoFields {
			files = append(files, form.File[field]...)
		}
		return body, files, nil

	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := c.Request.ParseForm(); err != nil {
			return nil, nil, bodyError("failed to parse form", err)
		}
		body := services.Body{}
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				body[key] = values[0]
			}
		}
		return body, nil, nil
	}

	body := services.Body{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, bodyError("invalid JSON body", err)
	}
	return body, nil, nil
}

// photoRefs reads already stored photo references from a JSON body.
func photoRefs(body services.Body) []string {
	var refs []string
	for _, field := range photoFields {
		switch v := body[field].(type) {
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					refs = append(refs, strings.TrimSpace(s))
				}
			}
		case string:
			if s := strings.TrimSpace(v); s != "" && !strings.HasPrefix(s, "[") {
				refs = append(refs, s)
			}
		}
	}
	return refs
}

func bodyError(msg string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierr.New(http.StatusRequestEntityTooLarge, apierr.CodeValidation, "request body too large", err)
	}
	return apierr.New(http.StatusBadRequest, apierr.CodeValidation, msg, err)
}
