package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/sbilibin2017/gw-catalog/internal/images"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

const (
	imagesField  = "images"
	maxFieldSize = 1 << 20
	maxFormBody  = images.MaxFiles*images.MaxFileSize + 8*maxFieldSize
)

// requestError is a malformed or over-limit request body. Its message is sent to the client.
type requestError struct {
	message string
}

func (e *requestError) Error() string { return e.message }

var (
	errTooManyFiles   = &requestError{message: fmt.Sprintf("Too many files. Maximum is %d.", images.MaxFiles)}
	errFileTooLarge   = &requestError{message: "File too large. Maximum size is 5MB."}
	errFieldTooLarge  = &requestError{message: "Field value too large."}
	errUnexpectedFile = &requestError{message: "Unexpected file field. Images must be sent as \"images\"."}
	errBodyTooLarge   = &requestError{message: "Request body too large."}
	errInvalidBody    = &requestError{message: "Invalid request body"}
	errContentType    = &requestError{message: "Unsupported content type."}
)

// parseProductRequest reads the product fields and uploaded files of a create
// or update request. Fields that are not present stay nil.
func parseProductRequest(w http.ResponseWriter, r *http.Request) (models.ProductInput, []images.Upload, error) {
	var in models.ProductInput

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return in, nil, errContentType
		}
		mediaType = mt
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	switch mediaType {
	case "multipart/form-data":
		return parseMultipart(r)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return in, nil, bodyError(err)
		}
		for name, values := range r.PostForm {
			if len(values) == 0 {
				continue
			}
			if len(values[0]) > maxFieldSize {
				return in, nil, errFieldTooLarge
			}
			setField(&in, name, values[0])
		}
		return in, nil, nil
	case "application/json", "":
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			if errors.Is(err, io.EOF) {
				return in, nil, nil
			}
			return in, nil, bodyError(err)
		}
		return in, nil, nil
	default:
		return in, nil, errContentType
	}
}

func parseMultipart(r *http.Request) (models.ProductInput, []images.Upload, error) {
	var in models.ProductInput
	var uploads []images.Upload

	mr, err := r.MultipartReader()
	if err != nil {
		return in, nil, errInvalidBody
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in, nil, bodyError(err)
		}

		name := part.FormName()
		if filename := rawFilename(part); filename != "" {
			if name != imagesField {
				part.Close()
				return in, nil, errUnexpectedFile
			}
			if len(uploads) == images.MaxFiles {
				part.Close()
				return in, nil, errTooManyFiles
			}
			data, err := io.ReadAll(io.LimitReader(part, images.MaxFileSize+1))
			part.Close()
			if err != nil {
				return in, nil, bodyError(err)
			}
			if len(data) > images.MaxFileSize {
				return in, nil, errFileTooLarge
			}
			uploads = append(uploads, images.Upload{
				Filename:    filename,
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			continue
		}

		value, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
		part.Close()
		if err != nil {
			return in, nil, bodyError(err)
		}
		if len(value) > maxFieldSize {
			return in, nil, errFieldTooLarge
		}
		setField(&in, name, string(value))
	}

	if err := images.Validate(uploads); err != nil {
		return in, nil, err
	}
	return in, uploads, nil
}

// rawFilename returns the filename parameter exactly as the client sent it.
// Part.FileName strips directories, which would hide traversal attempts.
func rawFilename(part *multipart.Part) string {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return part.FileName()
	}
	return params["filename"]
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return errInvalidBody
}

// setField assigns a known form field. The first occurrence wins.
func setField(in *models.ProductInput, name, value string) {
	var dst **string
	switch name {
	case "brand_name":
		dst = &in.BrandName
	case "colors":
		dst = &in.Colors
	case "fabric":
		dst = &in.Fabric
	case "sizes":
		dst = &in.Sizes
	case "description":
		dst = &in.Description
	default:
		return
	}
	if *dst == nil {
		v := value
		*dst = &v
	}
}
