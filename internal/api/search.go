package api

import (
	"net/http"
	"strconv"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hasnainrazaa03/jarvis/internal/qna"
)

const maxSearchResults = 20

type searchResponse struct {
	Results     []qna.Result `json:"results"`
	AutoSuggest bool         `json:"auto_suggest"`
	Seq         uint64       `json:"seq,omitempty"`
	// Stale is set when a newer search from the same session was already seen.
	Stale bool `json:"stale,omitempty"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := qna.DefaultTopN
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchResults)
	}

	var (
		resp searchResponse
		seqr *qna.Sequencer
	)
	if sid := q.Get("session_id"); sid != "" {
		seqr = s.sequencer(sid)
	}
	if v := q.Get("seq"); v != "" {
		seq, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "seq must be a non-negative integer")
			return
		}
		resp.Seq = seq
		if seqr != nil {
			seqr.Observe(seq)
		}
	} else if seqr != nil {
		// No client number: issue one so the caller can still order replies.
		resp.Seq = seqr.Next()
	}

	resp.Results = []qna.Result{}
	if s.deps.Index != nil {
		resp.Results = s.deps.Index.Search(q.Get("q"), limit)
	}
	if len(resp.Results) > 0 {
		resp.AutoSuggest = resp.Results[0].AutoSuggest()
	}
	// Checked after searching so a request overtaken mid-search is marked too.
	if seqr != nil && resp.Seq != 0 {
		resp.Stale = !seqr.IsLatest(resp.Seq)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) sequencer(sessionID string) *qna.Sequencer {
	if v, ok := s.sequencers.Get(sessionID); ok {
		s.sequencers.Set(sessionID, v, gocache.DefaultExpiration)
		return v.(*qna.Sequencer)
	}
	seq := &qna.Sequencer{}
	// Another request may have raced us; keep whichever got in first.
	if err := s.sequencers.Add(sessionID, seq, gocache.DefaultExpiration); err != nil {
		if v, ok := s.sequencers.Get(sessionID); ok {
			return v.(*qna.Sequencer)
		}
	}
	return seq
}
