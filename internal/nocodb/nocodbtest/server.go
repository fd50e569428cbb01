// Package nocodbtest runs an in-process fake of the NocoDB records and
// storage endpoints.  Tests seed rows, inject failures per method and
// table, and inspect what the code under test wrote.
package nocodbtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/larder/internal/nocodb"
)

// Token is the xc-token the fake accepts.
const Token = "test-token"

// Upload is one file received by the storage endpoint.
type Upload struct {
	Path     string
	Title    string
	Mimetype string
	Size     int64
	Data     []byte
}

// Server is the fake API.  Zero value is invalid; use New.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	tables  map[string]map[int]map[string]any
	nextID  map[string]int
	uploads []Upload
	faults  map[string]int
}

// New starts a fake and stops it when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		tables: make(map[string]map[int]map[string]any),
		nextID: make(map[string]int),
		faults: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(s.auth, s.fault)
	r.Get("/tables/{table}/records", s.list)
	r.Get("/tables/{table}/records/{id}", s.get)
	r.Post("/tables/{table}/records", s.create)
	r.Patch("/tables/{table}/records", s.update)
	r.Delete("/tables/{table}/records", s.delete)
	r.Post("/storage/upload", s.upload)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Client returns a nocodb client pointed at the fake.
func (s *Server) Client() *nocodb.Client {
	return nocodb.New(nocodb.Options{BaseURL: s.URL, Token: Token, HTTPClient: s.Server.Client()})
}

/*──────────────────────────── test controls ────────────────────────────────*/

// Seed stores a row and returns its id.
func (s *Server) Seed(table string, fields map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(table, fields)
}

// Row returns a copy of a stored row.
func (s *Server) Row(table string, id int) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tables[table][id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Count returns the number of rows in table.
func (s *Server) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// Uploads returns every file received so far.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Fail makes every request with method against table answer status until
// Clear is called.  Use table "storage" for the upload endpoint.
func (s *Server) Fail(method, table string, status int) {
	s.mu.Lock()
	s.faults[method+" "+table] = status
	s.mu.Unlock()
}

// Clear removes all injected failures.
func (s *Server) Clear() {
	s.mu.Lock()
	s.faults = make(map[string]int)
	s.mu.Unlock()
}

/*──────────────────────────── middleware ───────────────────────────────────*/

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(nocodb.TokenHeader) != Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) fault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// URL params are not resolved yet in middleware; match on the path.
		table := tableFromPath(r.URL.Path)
		s.mu.Lock()
		code, ok := s.faults[r.Method+" "+table]
		s.mu.Unlock()
		if ok {
			writeJSON(w, code, map[string]string{"msg": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// tableFromPath extracts {table} from /tables/{table}/records[...].
func tableFromPath(p string) string {
	const prefix = "/tables/"
	if len(p) <= len(prefix) || p[:len(prefix)] != prefix {
		return "storage"
	}
	rest := p[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i]
		}
	}
	return rest
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	s.mu.Lock()
	ids := make([]int, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, s.tables[table][id])
	}
	body, _ := json.Marshal(map[string]any{
		"list":     rows,
		"pageInfo": map[string]any{"totalRows": len(rows), "isLastPage": true},
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "bad id"})
		return
	}

	s.mu.Lock()
	row, ok := s.tables[table][id]
	var body []byte
	if ok {
		body, _ = json.Marshal(row)
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "Record '" + strconv.Itoa(id) + "' not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
		return
	}
	delete(fields, "Id")

	s.mu.Lock()
	id := s.insert(chi.URLParam(r, "table"), fields)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{"Id": id})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
		return
	}
	id, ok := asInt(fields["Id"])
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Id required"})
		return
	}

	table := chi.URLParam(r, "table")
	s.mu.Lock()
	row, found := s.tables[table][id]
	if found {
		for k, v := range fields {
			if k != "Id" {
				row[k] = v
			}
		}
	}
	s.mu.Unlock()

	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "record not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"Id": id})
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	var keys []map[string]any
	if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
		return
	}

	table := chi.URLParam(r, "table")
	out := make([]map[string]int, 0, len(keys))
	s.mu.Lock()
	for _, k := range keys {
		id, ok := asInt(k["Id"])
		if !ok {
			continue
		}
		if _, found := s.tables[table][id]; found {
			delete(s.tables[table], id)
			out = append(out, map[string]int{"Id": id})
		}
	}
	s.mu.Unlock()

	if len(out) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "record not found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "file required"})
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	size, _ := strconv.ParseInt(r.FormValue("size"), 10, 64)
	up := Upload{
		Path:     r.URL.Query().Get("path"),
		Title:    r.FormValue("title"),
		Mimetype: r.FormValue("mimetype"),
		Size:     size,
		Data:     data,
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, []map[string]any{{
		"path":       up.Path,
		"title":      up.Title,
		"mimetype":   up.Mimetype,
		"size":       up.Size,
		"signedPath": "dltemp/signed/" + up.Title,
	}})
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// insert stores fields under a fresh id.  Caller holds s.mu.
func (s *Server) insert(table string, fields map[string]any) int {
	if s.tables[table] == nil {
		s.tables[table] = make(map[int]map[string]any)
	}
	s.nextID[table]++
	id := s.nextID[table]

	row := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	row["Id"] = id
	s.tables[table][id] = row
	return id
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
