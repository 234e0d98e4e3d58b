package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"quotecraft/internal/ingest"
)

const uploadMemory = 32 << 20

// Upload parses one BOQ or quote document. Column names can be overridden
// with col_<field> form values.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, badRequest("bad multipart form: %v", err))
		return
	}
	ft, err := ingest.ParseFileType(r.FormValue("fileType"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("missing file: %v", err))
		return
	}
	defer file.Close()

	m := ingest.DefaultMapping().Merge(ingest.Mapping{
		ItemNumber:  r.FormValue("col_item_number"),
		SKU:         r.FormValue("col_sku"),
		Description: r.FormValue("col_description"),
		Section:     r.FormValue("col_section"),
		Unit:        r.FormValue("col_unit"),
		Qty:         r.FormValue("col_qty"),
		Rate:        r.FormValue("col_rate"),
		LineTotal:   r.FormValue("col_line_total"),
		LeadTime:    r.FormValue("col_lead_time"),
		HeaderRow:   atoi(r.FormValue("headerRow"), 0),
	})
	v := ingest.Vendor{ID: r.FormValue("vendorId"), Name: r.FormValue("vendorName")}

	doc, err := ingest.Parse(file, header.Filename, ft, m, v)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ev := zerolog.Ctx(r.Context()).Info().Str("file", header.Filename).Str("type", string(ft))
	if doc.BOQ != nil {
		ev = ev.Int("items", len(doc.BOQ.Items))
	} else {
		ev = ev.Int("items", len(doc.Quote.Items))
	}
	ev.Msg("document parsed")
	writeOK(w, http.StatusOK, doc, "File processed")
}
