package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gridsync-logstream/internal/usecase"
	"gridsync-logstream/pkg/shared/redact"
)

const (
	defaultRecordsLimit = 500
	maxRecordsLimit     = 10000
	exportPageSize      = 1000
)

func (d *Deps) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	st := d.Stream.Status()
	st.NodeURL = redact.URL(st.NodeURL)
	writeJSON(w, http.StatusOK, st)
}

func (d *Deps) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	d.Stream.Start()
	d.Logger.Info().Msg("logstream: start requested via api")
	writeJSON(w, http.StatusAccepted, map[string]any{"state": d.Stream.State()})
}

func (d *Deps) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST", nil)
		return
	}
	d.Stream.Stop()
	d.Logger.Info().Msg("logstream: stop requested via api")
	writeJSON(w, http.StatusOK, map[string]any{"state": d.Stream.State()})
}

// handleRecords pages records: GET /api/records?after=<seq>&limit=<n>.
// DELETE clears the buffer.
func (d *Deps) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var after uint64
		if v := r.URL.Query().Get("after"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "BAD_CURSOR", "after must be a record sequence number", map[string]any{"after": v})
				return
			}
			after = n
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = defaultRecordsLimit
		}
		if limit > maxRecordsLimit {
			limit = maxRecordsLimit
		}
		items, next, err := d.Stream.ListRecords(r.Context(), after, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "RECORDS_LIST_FAILED", err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "next": next})
	case http.MethodDelete:
		if err := d.Stream.ClearRecords(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "RECORDS_CLEAR_FAILED", err.Error(), nil)
			return
		}
		d.Monitor.Publish(MonitorEvent{Type: "records_cleared"})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or DELETE", nil)
	}
}

type nodeDTO struct {
	NodeURL string `json:"nodeUrl"`
}

// handleNode reads or replaces the node's base address. A new address is
// used from the next connection attempt; the live session is left alone.
func (d *Deps) handleNode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, nodeDTO{NodeURL: redact.URL(d.Stream.Status().NodeURL)})
	case http.MethodPut:
		if d.Node == nil {
			writeError(w, http.StatusConflict, "NODE_URL_READONLY", "node address is read from the node directory", nil)
			return
		}
		var in nodeDTO
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid json", nil)
			return
		}
		if _, err := usecase.ResolveEndpoint(in.NodeURL, d.Cfg.Stream.Path); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_NODE_URL", err.Error(), nil)
			return
		}
		d.Node.SetNodeURL(in.NodeURL)
		d.Logger.Info().Str("node", redact.URL(in.NodeURL)).Msg("logstream: node address updated")
		writeJSON(w, http.StatusOK, nodeDTO{NodeURL: redact.URL(in.NodeURL)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or PUT", nil)
	}
}

// handleExport streams every retained record as NDJSON, one page at a time,
// so a large buffer is never encoded in one piece.
func (d *Deps) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET", nil)
		return
	}
	page, next, err := d.Stream.ListRecords(r.Context(), 0, exportPageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "RECORDS_LIST_FAILED", err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=logstream_records.ndjson")
	enc := json.NewEncoder(w)
	for len(page) > 0 {
		for _, rec := range page {
			if err := enc.Encode(rec); err != nil {
				return
			}
		}
		if len(page) < exportPageSize {
			break
		}
		page, next, err = d.Stream.ListRecords(r.Context(), next, exportPageSize)
		if err != nil {
			d.Logger.Error().Err(err).Msg("logstream: export aborted")
			return
		}
	}
}
