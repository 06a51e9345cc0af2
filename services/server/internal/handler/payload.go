package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/cuihairu/faultline/internal/ingest"
	"github.com/cuihairu/faultline/services/server/internal/logic"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 8 << 20

// imageFields are the multipart parts that carry images.
var imageFields = []string{"files", "images"}

// readFaultPayload decodes a JSON, urlencoded or multipart fault body. The
// returned release func closes uploaded parts and must always be called.
func readFaultPayload(w http.ResponseWriter, r *http.Request, maxBytes int64) (logic.FaultPayload, func(), error) {
	noop := func() {}
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return logic.FaultPayload{}, noop, badRequest(err)
		}
		return fromMultipart(r.MultipartForm)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return logic.FaultPayload{}, noop, badRequest(err)
		}
		form := make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				form[k] = vs[0]
			}
		}
		return logic.FaultPayload{Form: form}, noop, nil
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return logic.FaultPayload{}, noop, badRequest(err)
		}
		return logic.FaultPayload{JSON: body}, noop, nil
	}
}

func fromMultipart(mf *multipart.Form) (logic.FaultPayload, func(), error) {
	p := logic.FaultPayload{Form: make(map[string]string, len(mf.Value))}
	for k, vs := range mf.Value {
		if len(vs) > 0 {
			p.Form[k] = vs[0]
		}
	}
	var opened []multipart.File
	release := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = mf.RemoveAll()
	}
	for _, field := range imageFields {
		for _, fh := range mf.File[field] {
			f, err := fh.Open()
			if err != nil {
				release()
				return logic.FaultPayload{}, func() {}, badRequest(err)
			}
			opened = append(opened, f)
			p.Files = append(p.Files, ingest.File{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			})
		}
	}
	return p, release, nil
}
