package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/tendant/quote-intake/pkg/quoteintake"
)

// PhotosField is the repeated multipart file field carrying attachments
const PhotosField = "photos"

// multipartMemory is how much photo content is held in memory before parts
// spill to temporary files.
const multipartMemory = 8 << 20

// maxValueBytes caps the combined size of non-file form values.
const maxValueBytes = 1 << 20

var (
	errUnparseable = errors.New("unparseable request body")
	errNotBuffered = errors.New("attachment beyond the photo limit was not read")
)

// parsedBody is one of multipartBody or jsonBody.
type parsedBody interface {
	fields() quoteintake.Fields
	attachments() []quoteintake.Attachment
	cleanup()
}

type multipartBody struct {
	values    map[string]string
	files     []quoteintake.Attachment
	tempFiles []string
}

func (b *multipartBody) fields() quoteintake.Fields {
	return quoteintake.FieldsFrom(func(name string) any {
		v, ok := b.values[name]
		if !ok {
			return nil
		}
		return v
	})
}

func (b *multipartBody) attachments() []quoteintake.Attachment {
	return b.files
}

func (b *multipartBody) cleanup() {
	for _, name := range b.tempFiles {
		_ = os.Remove(name)
	}
	b.tempFiles = nil
}

// readPhoto buffers one photo part, in memory while memLeft allows and in a
// temporary file after that. At most MaxAttachmentSize+1 bytes are read, so
// an oversized photo still fails the size check without being read in full.
func (b *multipartBody) readPhoto(part *multipart.Part, memLeft *int64) error {
	limited := io.LimitReader(part, quoteintake.MaxAttachmentSize+1)

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, limited, *memLeft+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if n <= *memLeft {
		*memLeft -= n
		b.files = append(b.files, quoteintake.NewAttachment(
			part.FileName(), part.Header.Get("Content-Type"), buf.Bytes()))
		return nil
	}

	f, err := os.CreateTemp("", "quote-photo-*")
	if err != nil {
		return err
	}
	b.tempFiles = append(b.tempFiles, f.Name())
	size, err := io.Copy(f, io.MultiReader(&buf, limited))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	name := f.Name()
	b.files = append(b.files, quoteintake.Attachment{
		Filename: part.FileName(),
		MimeType: part.Header.Get("Content-Type"),
		Size:     size,
		Open: func() (io.ReadCloser, error) {
			return os.Open(name)
		},
	})
	return nil
}

type jsonBody struct {
	values map[string]any
}

func (b jsonBody) fields() quoteintake.Fields {
	return quoteintake.FieldsFrom(func(name string) any {
		return b.values[name]
	})
}

// JSON bodies never carry files.
func (b jsonBody) attachments() []quoteintake.Attachment {
	return nil
}

func (b jsonBody) cleanup() {}

// parseBody reads r once, choosing the variant from the Content-Type.
// The returned body must be released with cleanup.
func parseBody(r *http.Request) (parsedBody, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		return parseMultipart(r)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparseable, err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparseable, err)
	}

	switch v := decoded.(type) {
	case nil:
		return nil, errUnparseable
	case bool:
		if !v {
			return nil, errUnparseable
		}
	case float64:
		if v == 0 {
			return nil, errUnparseable
		}
	case string:
		if v == "" {
			return nil, errUnparseable
		}
	case map[string]any:
		return jsonBody{values: v}, nil
	}

	// Any other JSON value parses but yields no fields
	return jsonBody{}, nil
}

// parseMultipart streams the form part by part. Reading stops at the first
// photo past MaxAttachments: that photo is kept as a placeholder so the
// count check rejects the submission, and nothing after it is read. Form
// values sent after that photo are therefore not seen.
func parseMultipart(r *http.Request) (parsedBody, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparseable, err)
	}

	body := &multipartBody{values: make(map[string]string)}
	memLeft := int64(multipartMemory)
	valuesLeft := int64(maxValueBytes)

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			body.cleanup()
			return nil, fmt.Errorf("%w: %v", errUnparseable, err)
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, valuesLeft+1))
			if err != nil || int64(len(value)) > valuesLeft {
				body.cleanup()
				return nil, fmt.Errorf("%w: form values too large or unreadable", errUnparseable)
			}
			valuesLeft -= int64(len(value))
			if _, seen := body.values[name]; !seen {
				body.values[name] = string(value)
			}
			continue
		}

		if name != PhotosField {
			continue
		}

		if len(body.files) == quoteintake.MaxAttachments {
			body.files = append(body.files, quoteintake.Attachment{
				Filename: part.FileName(),
				MimeType: part.Header.Get("Content-Type"),
				Open: func() (io.ReadCloser, error) {
					return nil, errNotBuffered
				},
			})
			return body, nil
		}

		if err := body.readPhoto(part, &memLeft); err != nil {
			body.cleanup()
			return nil, fmt.Errorf("%w: %v", errUnparseable, err)
		}
	}
}
