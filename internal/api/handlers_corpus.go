package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/lawgpt/internal/domain"
	"github.com/dgallion1/lawgpt/internal/parser"
)

func (s *Server) handleAgentStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "agent stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.deps.Stats.Snapshot(),
	})
}

type corpusInfo struct {
	Documents int       `json:"documents"`
	Acts      []string  `json:"acts"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s *Server) handleCorpusInfo(w http.ResponseWriter, r *http.Request) {
	if s.deps.Corpus == nil {
		jsonError(w, "corpus unavailable", http.StatusServiceUnavailable)
		return
	}
	snap, err := s.deps.Corpus.Snapshot(r.Context())
	if err != nil {
		writeError(w, domain.NewUnavailableError("corpus not loaded", err))
		return
	}
	acts := snap.Acts()
	if acts == nil {
		acts = []string{}
	}
	writeJSON(w, http.StatusOK, corpusInfo{
		Documents: snap.Len(),
		Acts:      acts,
		LoadedAt:  snap.LoadedAt(),
	})
}

func (s *Server) handleCorpusReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Corpus == nil {
		jsonError(w, "corpus unavailable", http.StatusServiceUnavailable)
		return
	}
	snap, err := s.deps.Corpus.ForceReload(r.Context())
	if err != nil {
		s.log.Error("corpus reload failed", "error", err)
		writeError(w, domain.NewUnavailableError("corpus reload failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "reloaded",
		"documents": snap.Len(),
		"loaded_at": snap.LoadedAt(),
	})
}

// handleUploadAct saves an uploaded act file into the upload directory and
// reloads the corpus so its pages become searchable.
func (s *Server) handleUploadAct(w http.ResponseWriter, r *http.Request) {
	dir := s.cfg.Corpus.UploadDir
	if dir == "" || s.deps.Corpus == nil {
		jsonError(w, "uploads are disabled", http.StatusNotFound)
		return
	}

	maxBytes := s.cfg.Server.MaxUpload
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) && !strings.EqualFold(filepath.Ext(filename), ".jsonl") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > maxBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", maxBytes), http.StatusRequestEntityTooLarge)
		return
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("create upload dir", "dir", dir, "error", err)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	path := filepath.Join(dir, filename)
	if err := writeFileAtomic(path, data); err != nil {
		s.log.Error("store upload", "path", path, "error", err)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	s.log.Info("act uploaded", "file", filename, "bytes", len(data))

	snap, err := s.deps.Corpus.ForceReload(r.Context())
	if err != nil {
		s.log.Error("corpus reload after upload failed", "file", filename, "error", err)
		writeError(w, domain.NewUnavailableError("file stored but corpus reload failed", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"file":      filename,
		"act_name":  parser.InferActName(filename),
		"documents": snap.Len(),
	})
}

// writeFileAtomic writes through a temp file so a concurrent reload never
// reads a partial act.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	switch {
	case name == "" || name == ".":
		name = "unnamed"
	case strings.HasPrefix(name, "."):
		name = "unnamed" + name
	}
	return name
}
