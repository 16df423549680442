package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/doideposit/internal/crossref"
	"github.com/dgallion1/doideposit/internal/record"
	"github.com/dgallion1/doideposit/internal/xmltree"
	gocache "github.com/patrickmn/go-cache"
)

// generated is a serialized record and the name it is stored and uploaded under.
// Explicit is set when the caller chose the batch id.
type generated struct {
	BatchID  string
	Explicit bool
	Filename string
	XML      string
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.generateFromRequest(w, r)
	if !ok || !s.archiveRecord(w, r, rec) {
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("X-Batch-ID", rec.BatchID)
	w.Write([]byte(rec.XML))
}

func (s *Server) handleValidateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.generateFromRequest(w, r)
	if !ok || !s.archiveRecord(w, r, rec) {
		return
	}
	verdict, err := s.validator.Validate(r.Context(), rec.Filename, rec.XML)
	if err != nil {
		s.log.Error("validation failed", "batch_id", rec.BatchID, "error", err)
		remoteError(w, "validate", err)
		return
	}
	s.log.Info("record validated", "batch_id", rec.BatchID, "valid", verdict.Valid)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"batch_id": rec.BatchID,
		"valid":    verdict.Valid,
		"feedback": verdict.Feedback,
	})
}

func (s *Server) handleDepositRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.generateFromRequest(w, r)
	if !ok {
		return
	}
	// Only caller-chosen batch ids are held; defaulted ones are per second and
	// shared by unrelated articles. A held id is released if the upload fails.
	if rec.Explicit {
		if err := s.deposited.Add(rec.BatchID, s.now(), gocache.DefaultExpiration); err != nil {
			jsonError(w, fmt.Sprintf("batch %s was already deposited", rec.BatchID), http.StatusConflict)
			return
		}
	}
	release := func() {
		if rec.Explicit {
			s.deposited.Delete(rec.BatchID)
		}
	}
	if !s.archiveRecord(w, r, rec) {
		release()
		return
	}
	resp, err := s.depositor.Deposit(r.Context(), rec.Filename, rec.XML)
	if err != nil {
		release()
		s.log.Error("deposit failed", "batch_id", rec.BatchID, "error", err)
		remoteError(w, "deposit", err)
		return
	}
	s.log.Info("record deposited", "batch_id", rec.BatchID, "status", resp.StatusCode)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"batch_id":    rec.BatchID,
		"status_code": resp.StatusCode,
		"body":        resp.Body,
	})
}

// generateFromRequest decodes Params from the body and builds the record.
// On failure the error response is already written.
func (s *Server) generateFromRequest(w http.ResponseWriter, r *http.Request) (generated, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var p record.Params
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return generated{}, false
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return generated{}, false
	}

	rec, err := s.generate(p)
	if err != nil {
		faultError(w, err)
		return generated{}, false
	}
	return rec, true
}

func (s *Server) generate(p record.Params) (generated, error) {
	now := s.now()
	explicit := p.BatchID != ""
	if !explicit {
		p.BatchID = record.BatchID(now)
	}
	xml, err := record.Generate(p, s.cfg.Identity, now)
	if err != nil {
		return generated{}, err
	}
	return generated{
		BatchID:  p.BatchID,
		Explicit: explicit,
		Filename: sanitizeFilename(p.BatchID) + ".xml",
		XML:      xml,
	}, nil
}

// archiveRecord copies rec to the archive sink when one is configured. On
// failure the error response is already written.
func (s *Server) archiveRecord(w http.ResponseWriter, r *http.Request, rec generated) bool {
	if s.archive == nil {
		return true
	}
	if err := s.archive.Write(r.Context(), rec.Filename, rec.XML); err != nil {
		s.log.Error("archive failed", "batch_id", rec.BatchID, "error", err)
		jsonError(w, "archive record: "+err.Error(), http.StatusInternalServerError)
		return false
	}
	return true
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	tree, err := xmltree.DecodeJSON(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid tree: "+err.Error(), http.StatusBadRequest)
		return
	}
	out, err := xmltree.Serialize(tree)
	if err != nil {
		faultError(w, err)
		return
	}
	if r.URL.Query().Get("envelope") == "true" {
		start, end := s.cfg.Identity.Envelope()
		out = start + out + end
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(out))
}

func (s *Server) handleRemoteStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "remote stats unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stats": s.stats.Snapshot()})
}

// faultError maps record and tree faults to 400 and anything else to 500.
func faultError(w http.ResponseWriter, err error) {
	var missing *record.MissingFieldError
	var malformed *xmltree.MalformedTreeError
	switch {
	case errors.As(err, &missing), errors.As(err, &malformed):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// remoteError reports a collaborator failure as 502, passing through the
// remote status and body when there is one.
func remoteError(w http.ResponseWriter, op string, err error) {
	body := map[string]any{"error": fmt.Sprintf("%s: %s", op, err)}
	var se *crossref.StatusError
	if errors.As(err, &se) {
		body["remote_status"] = se.StatusCode
		body["remote_body"] = se.Body
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename reduces a batch id to a safe base file name.
func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "record"
	}
	return name
}
