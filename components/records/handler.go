package records

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-dynui/pkg/record"
)

// collectionResponse is the wire shape of both routes. Item lookups answer
// with a one element collection so clients decode them with the same
// record.Shape.
type collectionResponse struct {
	Data   []map[string]any `json:"data"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the record collection at any path.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions is Handler with a pre-built Options value. Defaults are
// re-applied.
func HandlerWithOptions(opts Options) http.Handler {
	api := &api{opts: NewOptions(func(o *Options) { *o = opts })}
	return http.HandlerFunc(api.serveCollection)
}

// ItemHandlerWithOptions serves one record. The ID is read from the {id}
// path wildcard, or from the remaining path when mounted without one.
func ItemHandlerWithOptions(opts Options) http.Handler {
	api := &api{opts: NewOptions(func(o *Options) { *o = opts })}
	return http.HandlerFunc(api.serveItem)
}

type api struct {
	opts Options
}

func (a *api) serveCollection(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	records, err := a.opts.collection()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "records unavailable")
		return
	}

	q := r.URL.Query()
	limit, err := queryInt(q.Get(a.opts.LimitParam), a.opts.DefaultLimit)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", a.opts.LimitParam))
		return
	}
	offset, err := queryInt(q.Get(a.opts.OffsetParam), 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", a.opts.OffsetParam))
		return
	}

	matches := Search(records, q.Get(a.opts.SearchParam), a.opts)
	window := paginate(matches, offset, min(limit, a.opts.MaxLimit))
	writeJSON(w, r, http.StatusOK, newCollection(window, len(matches), offset))
}

func (a *api) serveItem(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		id = strings.Trim(r.URL.Path, "/")
	}
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	records, err := a.opts.collection()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "records unavailable")
		return
	}
	for _, rec := range records {
		if rec.ID == id {
			writeJSON(w, r, http.StatusOK, newCollection([]record.Record{rec}, 1, 0))
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("record %q not found", id))
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func newCollection(records []record.Record, total, offset int) collectionResponse {
	out := collectionResponse{Data: make([]map[string]any, 0, len(records)), Total: total, Offset: offset}
	for _, rec := range records {
		item := rec.Map()
		item["id"] = rec.ID
		out.Data = append(out.Data, item)
	}
	return out
}

func paginate(records []record.Record, offset, limit int) []record.Record {
	if offset >= len(records) || limit == 0 {
		return nil
	}
	end := min(offset+limit, len(records))
	return records[offset:end]
}

func queryInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if r != nil && r.Method == http.MethodHead {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, nil, status, errorResponse{Error: msg})
}
